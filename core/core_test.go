package core

import (
	"context"
	"testing"

	"github.com/huangsam/prisk/internal/iocache"
	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExecuteFactors(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.JSONOut
	assert.NoError(t, ExecuteFactors(context.Background(), cfg))

	cfg.Weights = map[schema.FactorName]float64{schema.FactorDiffSize: 1}
	assert.Error(t, ExecuteFactors(context.Background(), cfg), "every factor needs a weight")
}

func TestNewDepsCacheUsesManagerStore(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	client, finder := deletedParserRepo()
	client.On("IsWorkingTreeDirty", mock.Anything, "/repo").Return(false, nil)
	client.On("GetRepoHash", mock.Anything, "/repo").Return("h1", nil)

	store := &iocache.MockCacheStore{}
	store.On("Get", mock.AnythingOfType("string")).Return([]byte(nil), 0, int64(0), assert.AnError)
	store.On("Set", mock.AnythingOfType("string"), mock.AnythingOfType("[]uint8"), 1, mock.AnythingOfType("int64")).Return(nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetDepsStore").Return(store)

	cfg := testConfig()
	cache := NewDepsCache(cfg, client, finder, mgr)
	_, err := RunPRAnalysis(ctx, cfg, client, finder, cache)
	require.NoError(t, err)

	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestNewDepsCacheWithoutStore(t *testing.T) {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetDepsStore").Return(nil)

	client, finder := deletedParserRepo()
	cache := NewDepsCache(testConfig(), client, finder, mgr)

	_, err := cache.Get(context.Background(), "/repo")
	require.NoError(t, err)
	client.AssertNotCalled(t, "IsWorkingTreeDirty", mock.Anything, mock.Anything)
	assert.Equal(t, 1, cache.Scans())
}
