// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/prisk/core"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the prisk MCP server without starting it.
// One dependency cache lives as long as the server, so repeated calls for the
// same repository scan it once.
func NewMCPServer(baseCfg *contract.Config, client contract.GitClient, finder contract.FileFinder, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"prisk PR Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		finder:  finder,
		cache:   core.NewDepsCache(baseCfg, client, finder, mgr),
	}

	// --- 1. Tool: analyze_pr ---
	s.AddTool(mcp.NewTool("analyze_pr",
		mcp.WithDescription("Analyze the risk of the changes between a base ref and a target ref: breaking changes, blast radius, test coverage gaps, stale docs and an overall risk score."),
		mcp.WithString("base_ref", mcp.Description("The base reference the change will merge into (e.g., 'main')."), mcp.Required()),
		withRangeArgs(),
		withRepoPath(),
		mcp.WithNumber("max_depth", mcp.Description("Maximum import depth for the blast radius (0 disables indirect traversal).")),
		mcp.WithString("format", mcp.Description("Response format. Defaults to 'json'."), mcp.Enum("json", "markdown")),
	), h.handleAnalyzePR)

	// --- 2. Tool: get_blast_radius ---
	s.AddTool(mcp.NewTool("get_blast_radius",
		mcp.WithDescription("List the files directly changed and the files that import them, up to max_depth levels."),
		mcp.WithString("base_ref", mcp.Description("The base reference the change will merge into.")),
		withRangeArgs(),
		withRepoPath(),
		mcp.WithNumber("max_depth", mcp.Description("Maximum import depth (0 disables indirect traversal).")),
	), h.handleGetBlastRadius)

	// --- 3. Tool: detect_breaking_changes ---
	s.AddTool(mcp.NewTool("detect_breaking_changes",
		mcp.WithDescription("Detect removed or changed exports in changed source files, with the files that consume them."),
		mcp.WithString("base_ref", mcp.Description("The base reference the change will merge into.")),
		withRangeArgs(),
		withRepoPath(),
	), h.handleDetectBreakingChanges)

	// --- 4. Tool: check_test_coverage ---
	s.AddTool(mcp.NewTool("check_test_coverage",
		mcp.WithDescription("Report changed source files whose conventional test files were not changed alongside them."),
		mcp.WithString("base_ref", mcp.Description("The base reference the change will merge into.")),
		withRangeArgs(),
		withRepoPath(),
	), h.handleCheckTestCoverage)

	// --- 5. Tool: check_doc_staleness ---
	s.AddTool(mcp.NewTool("check_doc_staleness",
		mcp.WithDescription("Find documentation lines that still mention files or symbols the change removed."),
		mcp.WithString("base_ref", mcp.Description("The base reference the change will merge into.")),
		withRangeArgs(),
		withRepoPath(),
	), h.handleCheckDocStaleness)

	// --- 6. Tool: search_pattern ---
	s.AddTool(mcp.NewTool("search_pattern",
		mcp.WithDescription("Search tracked files for an extended regular expression. No matches returns an empty list."),
		mcp.WithString("pattern", mcp.Description("The extended regular expression to search for."), mcp.Required()),
		mcp.WithString("ref", mcp.Description("Revision to search. Defaults to the working tree.")),
		mcp.WithString("glob", mcp.Description("Optional pathspec glob limiting the search (e.g., '*.ts').")),
		withRepoPath(),
	), h.handleSearchPattern)

	// --- 7. Tool: reset_dependency_cache ---
	s.AddTool(mcp.NewTool("reset_dependency_cache",
		mcp.WithDescription("Drop the in-memory reverse-dependency map so the next call rescans the repository."),
	), h.handleResetDependencyCache)

	return s
}

// StartMCPServer starts the prisk MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, contract.NewLocalGitClient(), contract.NewLocalFileFinder(), mgr)
	return server.ServeStdio(s)
}

func withRangeArgs() mcp.ToolOption {
	return mcp.WithString("target_ref", mcp.Description("The reference holding the change. Defaults to 'HEAD'."))
}

func withRepoPath() mcp.ToolOption {
	return mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the server's repository)."))
}
