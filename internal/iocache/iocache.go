// Package iocache persists reverse-dependency maps across runs.
package iocache

import (
	"sync"

	"github.com/huangsam/prisk/internal/contract"
)

// CacheStoreManager manages the CacheStore instances used by the CLI.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	deps         contract.CacheStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetDepsStore returns the dependency-map CacheStore, or nil when caching was never initialized.
func (mgr *CacheStoreManager) GetDepsStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.deps
}
