package deps

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// currentCacheVersion defines the version of the persisted cache payload.
const currentCacheVersion = 1

// scannerVersion changes whenever extraction or resolution rules change.
const scannerVersion = "imports-v1"

// DepsCache holds the reverse-dependency map for one repository at a time.
// A hit for the same repository path skips the scan, a different path replaces
// the entry, and there is no time-based eviction.
type DepsCache struct {
	finder contract.FileFinder
	client contract.GitClient  // optional, needed for the persistent store
	store  contract.CacheStore // optional
	opts   ScanOptions

	mu       sync.Mutex
	repoPath string
	deps     *schema.ReverseDependencyMap
	scans    int
}

// NewDepsCache creates an empty cache. client and store may be nil.
func NewDepsCache(finder contract.FileFinder, client contract.GitClient, store contract.CacheStore, opts ScanOptions) *DepsCache {
	return &DepsCache{finder: finder, client: client, store: store, opts: opts}
}

// Get returns the reverse-dependency map for repoPath, scanning on a miss.
func (c *DepsCache) Get(ctx context.Context, repoPath string) (schema.ReverseDependencyMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deps != nil && c.repoPath == repoPath {
		return *c.deps, nil
	}

	deps, err := c.load(ctx, repoPath)
	if err != nil {
		return schema.ReverseDependencyMap{}, err
	}
	c.repoPath = repoPath
	c.deps = &deps
	return deps, nil
}

// Invalidate drops the in-memory entry so the next Get rescans.
func (c *DepsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repoPath = ""
	c.deps = nil
}

// Scans returns how many fresh scans this cache has performed.
func (c *DepsCache) Scans() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

// load consults the persistent store before falling back to a scan.
func (c *DepsCache) load(ctx context.Context, repoPath string) (schema.ReverseDependencyMap, error) {
	key, persist := c.persistKey(ctx, repoPath)
	if persist {
		if result, ok := checkCacheHit(c.store, key); ok {
			return result, nil
		}
	}

	deps, err := Scan(ctx, c.finder, repoPath, c.opts)
	if err != nil {
		return schema.ReverseDependencyMap{}, err
	}
	c.scans++

	if persist {
		storeResult(c.store, key, deps)
	}
	return deps, nil
}

// persistKey returns the store key for repoPath and whether the store may be used.
// A dirty working tree is never persisted because HEAD does not describe it.
func (c *DepsCache) persistKey(ctx context.Context, repoPath string) (string, bool) {
	if c.store == nil || c.client == nil {
		return "", false
	}
	dirty, err := c.client.IsWorkingTreeDirty(ctx, repoPath)
	if err != nil {
		contract.LogWarn("Cannot read working tree state, skipping dependency cache", err)
		return "", false
	}
	if dirty {
		return "", false
	}
	head, err := c.client.GetRepoHash(ctx, repoPath)
	if err != nil {
		contract.LogWarn("Cannot read HEAD, skipping dependency cache", err)
		return "", false
	}
	return generateCacheKey(repoPath, head, c.opts.Excludes), true
}

// generateCacheKey creates a unique key based on the repository state and scanner rules.
func generateCacheKey(repoPath, head string, excludes []string) string {
	key := fmt.Sprintf("%s:%s:%s:%s", repoPath, head, scannerVersion, strings.Join(excludes, ","))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// checkCacheHit attempts to retrieve and validate a cached result.
func checkCacheHit(store contract.CacheStore, key string) (schema.ReverseDependencyMap, bool) {
	data, version, _, err := store.Get(key)
	if err != nil || version != currentCacheVersion {
		return schema.ReverseDependencyMap{}, false // Cache miss
	}
	var result schema.ReverseDependencyMap
	if err := json.Unmarshal(data, &result); err != nil {
		contract.LogWarn("Discarding unreadable dependency cache entry", err)
		return schema.ReverseDependencyMap{}, false
	}
	if result.Dependents == nil {
		result.Dependents = make(map[string][]string)
	}
	if result.Dangling == nil {
		result.Dangling = make(map[string][]string)
	}
	return result, true
}

// storeResult writes a freshly scanned map to the store. Failures only warn.
func storeResult(store contract.CacheStore, key string, deps schema.ReverseDependencyMap) {
	data, err := json.Marshal(deps)
	if err != nil {
		contract.LogWarn("Cannot encode dependency map", err)
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Cannot persist dependency map", err)
	}
}
