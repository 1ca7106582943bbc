package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/prisk/core"
	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/internal/outwriter"
	"github.com/huangsam/prisk/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.GitClient
	finder  contract.FileFinder
	cache   *deps.DepsCache
}

// rangeConfig builds a per-call config from the common range arguments.
func (h *toolHandler) rangeConfig(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if b := request.GetString("base_ref", ""); b != "" {
		cfg.BaseRef = b
	}
	if t := request.GetString("target_ref", ""); t != "" {
		cfg.TargetRef = t
	}
	if cfg.BaseRef == "" {
		return nil, errors.New("base_ref is required")
	}
	if cfg.TargetRef == "" {
		cfg.TargetRef = contract.DefaultTargetRef
	}
	repo, err := h.resolveRepo(ctx, request)
	if err != nil {
		return nil, err
	}
	cfg.RepoPath = repo
	cfg.MaxDepth = request.GetInt("max_depth", cfg.MaxDepth)
	if cfg.MaxDepth < 0 || cfg.MaxDepth > contract.MaxMaxDepth {
		return nil, fmt.Errorf("max_depth must be between 0 and %d", contract.MaxMaxDepth)
	}
	return cfg, nil
}

// resolveRepo maps an optional repo_path argument to its repository root.
func (h *toolHandler) resolveRepo(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	p := request.GetString("repo_path", "")
	if p == "" {
		return h.baseCfg.RepoPath, nil
	}
	root, err := h.client.GetRepoRoot(ctx, p)
	if err != nil {
		return "", fmt.Errorf("not a git repository: %s", p)
	}
	return root, nil
}

// changeSet resolves the range arguments of a single-analysis tool call.
func (h *toolHandler) changeSet(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, *core.ChangeSet, *mcp.CallToolResult) {
	cfg, err := h.rangeConfig(ctx, request)
	if err != nil {
		return nil, nil, mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err))
	}
	cs, err := core.ResolveChangeSet(ctx, cfg, h.client)
	if err != nil {
		return nil, nil, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return cfg, cs, nil
}

// analyze runs the full analysis for a tool call, sharing the server's dependency cache.
func (h *toolHandler) analyze(ctx context.Context, request mcp.CallToolRequest) (*schema.PRAnalysis, *mcp.CallToolResult) {
	cfg, err := h.rangeConfig(ctx, request)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err))
	}
	analysis, err := core.RunPRAnalysis(core.WithSuppressHeader(ctx), cfg, h.client, h.finder, h.cache)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return analysis, nil
}

func (h *toolHandler) handleAnalyzePR(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("base_ref", "") == "" {
		return mcp.NewToolResultError("invalid parameters: base_ref is required"), nil
	}
	analysis, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	switch request.GetString("format", "json") {
	case "json":
		return jsonResult(analysis), nil
	case "markdown":
		return mcp.NewToolResultText(outwriter.RenderMarkdown(analysis)), nil
	default:
		return mcp.NewToolResultError("invalid parameters: format must be json or markdown"), nil
	}
}

func (h *toolHandler) handleGetBlastRadius(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, cs, errResult := h.changeSet(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	graph, err := core.BlastRadius(ctx, cfg, cs, h.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(graph), nil
}

func (h *toolHandler) handleDetectBreakingChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, cs, errResult := h.changeSet(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	detected, err := core.BreakingChanges(ctx, h.client, cs, h.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(struct {
		BreakingChanges []schema.BreakingChange `json:"breakingChanges"`
		NewExports      []schema.NewExport      `json:"newExports"`
	}{detected.BreakingChanges, detected.NewExports}), nil
}

func (h *toolHandler) handleCheckTestCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, cs, errResult := h.changeSet(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	report, err := core.TestCoverage(ctx, cfg, h.finder, cs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(report), nil
}

func (h *toolHandler) handleCheckDocStaleness(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, cs, errResult := h.changeSet(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	report, err := core.DocStaleness(ctx, cfg, h.client, h.finder, cs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(report), nil
}

func (h *toolHandler) handleSearchPattern(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := request.GetString("pattern", "")
	if pattern == "" {
		return mcp.NewToolResultError("invalid parameters: pattern is required"), nil
	}
	repo, err := h.resolveRepo(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	var globs []string
	if g := request.GetString("glob", ""); g != "" {
		globs = append(globs, g)
	}

	matches, err := h.client.SearchPattern(ctx, repo, request.GetString("ref", ""), pattern, globs...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if matches == nil {
		matches = []schema.SearchMatch{}
	}
	return jsonResult(matches), nil
}

func (h *toolHandler) handleResetDependencyCache(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.cache.Invalidate()
	return mcp.NewToolResultText("Dependency cache cleared; the next analysis rescans the repository."), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}
