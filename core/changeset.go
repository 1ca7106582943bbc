package core

import (
	"context"
	"fmt"

	"github.com/huangsam/prisk/core/breaking"
	"github.com/huangsam/prisk/core/coverage"
	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/core/docs"
	"github.com/huangsam/prisk/core/impact"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// ChangeSet is a resolved commit range plus the files it touches.
type ChangeSet struct {
	Repo    string
	Base    string // merge-base revision
	Head    string // resolved target revision
	Changed []schema.ChangedFile
}

// ResolveChangeSet resolves cfg's range against the repository and collects
// the changed files with their hunks.
func ResolveChangeSet(ctx context.Context, cfg *contract.Config, client contract.GitClient) (*ChangeSet, error) {
	repo := cfg.RepoPath
	head, err := client.ResolveRef(ctx, repo, cfg.TargetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref %q: %w", cfg.TargetRef, err)
	}
	base, err := client.MergeBase(ctx, repo, cfg.BaseRef, head)
	if err != nil {
		return nil, fmt.Errorf("merge base of %q and %q: %w", cfg.BaseRef, cfg.TargetRef, err)
	}

	changes, err := client.ListChangedFiles(ctx, repo, base, head)
	if err != nil {
		return nil, fmt.Errorf("list changed files: %w", err)
	}
	changed := BuildChangedFiles(filterChangedFiles(changes, cfg.Excludes))

	patch, err := client.Diff(ctx, repo, base, head)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	applyHunks(changed, patch)

	return &ChangeSet{Repo: repo, Base: base, Head: head, Changed: changed}, nil
}

// BlastRadius builds the impact graph of cs from the cached dependency map.
func BlastRadius(ctx context.Context, cfg *contract.Config, cs *ChangeSet, cache *deps.DepsCache) (schema.ImpactGraph, error) {
	depMap, err := cache.Get(ctx, cs.Repo)
	if err != nil {
		return schema.ImpactGraph{}, fmt.Errorf("build dependency map: %w", err)
	}
	return impact.Build(cs.Changed, depMap, cfg.MaxDepth), nil
}

// BreakingChanges compares the exports of every changed source file across cs.
func BreakingChanges(ctx context.Context, client contract.GitClient, cs *ChangeSet, cache *deps.DepsCache) (breaking.Result, error) {
	depMap, err := cache.Get(ctx, cs.Repo)
	if err != nil {
		return breaking.Result{}, fmt.Errorf("build dependency map: %w", err)
	}
	return detectBreaking(ctx, client, cs, depMap)
}

// TestCoverage reports changed source files that lack test changes.
func TestCoverage(ctx context.Context, cfg *contract.Config, finder contract.FileFinder, cs *ChangeSet) (schema.TestCoverageReport, error) {
	report, err := coverage.Analyze(ctx, finder, cs.Repo, cs.Changed, cfg.Excludes)
	if err != nil {
		return schema.TestCoverageReport{}, fmt.Errorf("analyze test coverage: %w", err)
	}
	return report, nil
}

// DocStaleness finds documentation that still mentions removed or renamed code.
func DocStaleness(ctx context.Context, cfg *contract.Config, client contract.GitClient, finder contract.FileFinder, cs *ChangeSet) (schema.DocStalenessReport, error) {
	opts := docs.Options{RepoPath: cs.Repo, Base: cs.Base, Head: cs.Head, Excludes: cfg.Excludes}
	report, err := docs.Check(ctx, client, finder, opts, cs.Changed)
	if err != nil {
		return schema.DocStalenessReport{}, fmt.Errorf("check doc staleness: %w", err)
	}
	return report, nil
}

func detectBreaking(ctx context.Context, client contract.GitClient, cs *ChangeSet, depMap schema.ReverseDependencyMap) (breaking.Result, error) {
	result, err := breaking.Detect(ctx, client, cs.Repo, cs.Base, cs.Head, cs.Changed, depMap)
	if err != nil {
		return breaking.Result{}, fmt.Errorf("detect breaking changes: %w", err)
	}
	return result, nil
}
