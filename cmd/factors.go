package cmd

import (
	"github.com/huangsam/prisk/core"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/spf13/cobra"
)

// factorsCmd displays the risk factors and their active weights.
var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Display the risk factors, their weights and scoring formulas",
	Long: `Show how the overall risk score is computed.

The score is round(sum of factor score x weight) over six factors, each scored 0-100.
Weights come from the defaults, overridden by the weights section of .prisk.yaml,
and must sum to 1.0.

No Git analysis is performed - this is purely informational.

Examples:
  # Show the default weights
  prisk factors

  # Validate custom weights from a config file
  prisk factors --config .prisk.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFactors(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display factors", err)
		}
	},
}
