package cmd

import (
	"github.com/huangsam/prisk/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the prisk MCP server",
	Long: `Launch an MCP server on stdio so that AI agents can analyze pull-request risk via standard tools.

The server keeps one reverse-dependency map in memory for its lifetime;
the reset_dependency_cache tool drops it.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
