package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/prisk/core/algo"
	"github.com/huangsam/prisk/core/breaking"
	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/core/impact"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"golang.org/x/sync/errgroup"
)

// RunPRAnalysis analyzes the changes between cfg.BaseRef and cfg.TargetRef.
// The four analyses share one dependency map and run concurrently. The first
// failure cancels the rest and no partial analysis is returned.
func RunPRAnalysis(ctx context.Context, cfg *contract.Config, client contract.GitClient, finder contract.FileFinder, cache *deps.DepsCache) (*schema.PRAnalysis, error) {
	if !shouldSuppressHeader(ctx) {
		logAnalysisHeader(cfg)
	}

	// Fail fast on a bad weight table before touching git
	calc, err := algo.NewRiskCalculator(algo.DefaultFactorSpecs(cfg.Weights))
	if err != nil {
		return nil, err
	}

	cs, err := ResolveChangeSet(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	depMap, err := cache.Get(ctx, cs.Repo)
	if err != nil {
		return nil, fmt.Errorf("build dependency map: %w", err)
	}

	var (
		graph    schema.ImpactGraph
		detected breaking.Result
		tests    schema.TestCoverageReport
		stale    schema.DocStalenessReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		graph = impact.Build(cs.Changed, depMap, cfg.MaxDepth)
		return nil
	})
	g.Go(func() error {
		var err error
		detected, err = detectBreaking(gctx, client, cs, depMap)
		return err
	})
	g.Go(func() error {
		var err error
		tests, err = TestCoverage(gctx, cfg, finder, cs)
		return err
	})
	g.Go(func() error {
		var err error
		stale, err = DocStaleness(gctx, cfg, client, finder, cs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assessment := calc.Assess(algo.RiskInput{
		ChangedFiles:    cs.Changed,
		BreakingChanges: detected.BreakingChanges,
		TestCoverage:    tests,
		DocStaleness:    stale,
		ImpactGraph:     graph,
	})

	analysis := &schema.PRAnalysis{
		RepoPath:        cs.Repo,
		BaseBranch:      cfg.BaseRef,
		HeadBranch:      cfg.TargetRef,
		BaseRevision:    cs.Base,
		ChangedFiles:    cs.Changed,
		BreakingChanges: detected.BreakingChanges,
		NewExports:      detected.NewExports,
		TestCoverage:    tests,
		DocStaleness:    stale,
		ImpactGraph:     graph,
		RiskScore:       assessment,
	}
	analysis.Summary = summarize(analysis)
	return analysis, nil
}

// filterChangedFiles drops changes whose path matches a user exclude.
func filterChangedFiles(changes []schema.FileChange, excludes []string) []schema.FileChange {
	if len(excludes) == 0 {
		return changes
	}
	filtered := make([]schema.FileChange, 0, len(changes))
	for _, c := range changes {
		if !contract.ShouldIgnore(c.Path, excludes) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// summarize builds the one-paragraph verdict shown at the top of every report.
func summarize(a *schema.PRAnalysis) string {
	if len(a.ChangedFiles) == 0 {
		return fmt.Sprintf("No changes between %s and %s. Risk is %s (%d/100).",
			a.BaseBranch, a.HeadBranch, a.RiskScore.Level, a.RiskScore.Score)
	}

	adds, dels := a.TotalLines()
	parts := []string{
		fmt.Sprintf("%s changed (+%d/-%d)", plural(len(a.ChangedFiles), "file"), adds, dels),
	}

	if n := len(a.BreakingChanges); n > 0 {
		high := 0
		for _, bc := range a.BreakingChanges {
			if bc.Severity == schema.SeverityHigh {
				high++
			}
		}
		parts = append(parts, fmt.Sprintf("%s (%d high severity)", plural(n, "breaking change"), high))
	}
	if n := len(a.ImpactGraph.IndirectlyAffected); n > 0 {
		parts = append(parts, fmt.Sprintf("%s indirectly affected", plural(n, "file")))
	}
	if gaps := len(a.TestCoverage.Gaps); gaps > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d changed source files lack test changes",
			gaps, a.TestCoverage.ChangedSourceFiles))
	}
	if n := len(a.DocStaleness.StaleReferences); n > 0 {
		parts = append(parts, plural(n, "stale doc reference"))
	}

	return fmt.Sprintf("Risk is %s (%d/100): %s.", a.RiskScore.Level, a.RiskScore.Score, strings.Join(parts, ", "))
}

// plural formats a count with a naive English plural.
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// logAnalysisHeader prints a concise header to stderr so that stdout stays machine-readable.
func logAnalysisHeader(cfg *contract.Config) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Repo: %s (max depth %d)\n", repoName, cfg.MaxDepth)
	_, _ = fmt.Fprintf(os.Stderr, "🔀 Range: %s → %s\n", cfg.BaseRef, cfg.TargetRef)
}
