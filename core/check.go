package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/internal/outwriter"
	"github.com/huangsam/prisk/schema"
)

// githubOutputDelimiter terminates the multi-line report value in $GITHUB_OUTPUT.
const githubOutputDelimiter = "PRISK_REPORT_EOF"

// ExecuteCheck runs the analysis as a CI gate.
// It exits with status 1 when the risk level reaches cfg.FailOn.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := contract.NewLocalGitClient()
	finder := contract.NewLocalFileFinder()

	analysis, err := RunPRAnalysis(ctx, cfg, client, finder, NewDepsCache(cfg, client, finder, mgr))
	if err != nil {
		return err
	}

	result := BuildCheckResult(analysis, cfg.FailOn)
	if err := outwriter.WriteCheckResult(result, cfg, time.Since(start)); err != nil {
		return err
	}

	if path := os.Getenv("GITHUB_OUTPUT"); path != "" {
		if err := appendGitHubOutput(path, analysis); err != nil {
			contract.LogWarn("Cannot write GitHub output", err)
		}
	}

	if !result.Passed {
		fmt.Printf("Risk level %s reaches the --fail-on threshold (%s)\n", result.Level, result.FailOn)
		os.Exit(1)
	}
	return nil
}

// BuildCheckResult reduces an analysis to a gate verdict.
func BuildCheckResult(analysis *schema.PRAnalysis, failOn schema.RiskLevel) *schema.CheckResult {
	return &schema.CheckResult{
		Passed:          !analysis.RiskScore.Level.AtLeast(failOn),
		Score:           analysis.RiskScore.Score,
		Level:           analysis.RiskScore.Level,
		FailOn:          failOn,
		BaseRef:         analysis.BaseBranch,
		TargetRef:       analysis.HeadBranch,
		ChangedFiles:    len(analysis.ChangedFiles),
		BreakingChanges: len(analysis.BreakingChanges),
		Summary:         analysis.Summary,
	}
}

// appendGitHubOutput appends the gate outputs to the file GitHub Actions reads step outputs from.
func appendGitHubOutput(path string, analysis *schema.PRAnalysis) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return writeGitHubOutput(f, analysis)
}

// writeGitHubOutput writes risk-score, risk-level and the markdown report as step outputs.
func writeGitHubOutput(w io.Writer, analysis *schema.PRAnalysis) error {
	report := outwriter.RenderMarkdown(analysis)
	delim := githubOutputDelimiter
	for strings.Contains(report, delim) {
		delim += "_"
	}
	_, err := fmt.Fprintf(w, "risk-score=%d\nrisk-level=%s\nreport<<%s\n%s\n%s\n",
		analysis.RiskScore.Score, analysis.RiskScore.Level, delim, strings.TrimRight(report, "\n"), delim)
	return err
}
