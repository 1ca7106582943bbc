// Package core orchestrates pull-request risk analysis and its CLI entry points.
package core

import (
	"context"
	"time"

	"github.com/huangsam/prisk/core/algo"
	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing different CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

var (
	_ ExecutorFunc = ExecuteAnalyze
	_ ExecutorFunc = ExecuteCheck
)

// ExecuteAnalyze runs the full analysis and writes the report in the configured format.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := contract.NewLocalGitClient()
	finder := contract.NewLocalFileFinder()

	analysis, err := RunPRAnalysis(ctx, cfg, client, finder, NewDepsCache(cfg, client, finder, mgr))
	if err != nil {
		return err
	}
	return outwriter.WritePRAnalysis(analysis, cfg, time.Since(start))
}

// ExecuteFactors prints the active risk factors with their weights.
func ExecuteFactors(_ context.Context, cfg *contract.Config) error {
	calc, err := algo.NewRiskCalculator(algo.DefaultFactorSpecs(cfg.Weights))
	if err != nil {
		return err
	}
	return outwriter.WriteFactors(calc.Definitions(), cfg)
}

// NewDepsCache creates a dependency cache backed by the manager's persistent store, if any.
func NewDepsCache(cfg *contract.Config, client contract.GitClient, finder contract.FileFinder, mgr contract.CacheManager) *deps.DepsCache {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetDepsStore()
	}
	opts := deps.ScanOptions{Workers: cfg.Workers, Excludes: cfg.Excludes}
	return deps.NewDepsCache(finder, client, store, opts)
}
