package core

import (
	"context"
	"testing"

	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveChangeSet(t *testing.T) {
	client, _ := deletedParserRepo()
	cfg := testConfig()
	cfg.Excludes = []string{"*.md"}

	cs, err := ResolveChangeSet(context.Background(), cfg, client)
	require.NoError(t, err)
	assert.Equal(t, "/repo", cs.Repo)
	assert.Equal(t, "b1", cs.Base)
	assert.Equal(t, "h1", cs.Head)
	require.Len(t, cs.Changed, 1)
	assert.Equal(t, "src/parser.ts", cs.Changed[0].Path)
	assert.Equal(t, schema.CategorySource, cs.Changed[0].Category)
}

func TestSingleAnalysesMatchFullRun(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	client, finder := deletedParserRepo()
	cfg := testConfig()
	cache := NewDepsCache(cfg, client, finder, nil)

	full, err := RunPRAnalysis(ctx, cfg, client, finder, cache)
	require.NoError(t, err)

	cs, err := ResolveChangeSet(ctx, cfg, client)
	require.NoError(t, err)

	graph, err := BlastRadius(ctx, cfg, cs, cache)
	require.NoError(t, err)
	assert.Equal(t, full.ImpactGraph, graph)

	detected, err := BreakingChanges(ctx, client, cs, cache)
	require.NoError(t, err)
	assert.Equal(t, full.BreakingChanges, detected.BreakingChanges)

	tests, err := TestCoverage(ctx, cfg, finder, cs)
	require.NoError(t, err)
	assert.Equal(t, full.TestCoverage, tests)

	stale, err := DocStaleness(ctx, cfg, client, finder, cs)
	require.NoError(t, err)
	assert.Equal(t, full.DocStaleness, stale)

	assert.Equal(t, 1, cache.Scans())
}

func TestTestCoverageSkipsDependencyScan(t *testing.T) {
	client, finder := deletedParserRepo()
	cfg := testConfig()

	cs, err := ResolveChangeSet(context.Background(), cfg, client)
	require.NoError(t, err)
	_, err = TestCoverage(context.Background(), cfg, finder, cs)
	require.NoError(t, err)

	finder.AssertNotCalled(t, "ReadFile", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "ReadFileAtRevision", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
