package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/internal/iocache"
	"github.com/huangsam/prisk/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheConfig loads and validates the cache backend settings only.
func cacheConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := cacheConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup used by analysis commands. This avoids Git repo validation.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the dependency map cache (improves performance)",
	Long: `Manage the cache of reverse-dependency maps that speeds up repeated analyses.

prisk scans every source file for imports once per run. The resulting map is stored
per repository, HEAD commit and exclude list, so a clean working tree at the same
commit skips the scan entirely.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached data
  migrate - Upgrade or roll back the cache schema

Examples:
  # Check cache status
  prisk cache status

  # Clear cache after rewriting history
  prisk cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached dependency maps",
	Long: `Delete all cached dependency maps from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache and migration tables

Examples:
  # Clear SQLite cache (default)
  prisk cache clear

  # Clear MySQL cache (set connection string via env variable)
  PRISK_CACHE_BACKEND=mysql PRISK_CACHE_DB_CONNECT="..." prisk cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, iocache.GetDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the dependency map cache.

Displays:
- Backend type, connection status and schema version
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  prisk cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetDepsStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache backend %s is not initialized", cfg.CacheBackend))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		var schemaVersion uint
		if cfg.CacheBackend != schema.NoneBackend {
			if schemaVersion, err = iocache.SchemaVersion(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
				contract.LogWarn("Cannot read cache schema version", err)
			}
		}
		iocache.PrintCacheStatus(os.Stdout, status, schemaVersion)
	},
}

// cacheMigrateCmd moves the cache schema to a version.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run cache schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the dependency map cache.

Every command that opens the cache migrates it to the latest version first.
Use this to roll back before downgrading prisk, or to inspect a specific version.

Examples:
  # Migrate to latest version (default)
  prisk cache migrate

  # Migrate to specific version
  prisk cache migrate --target-version 1

  # Roll back to the initial state
  prisk cache migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateDeps(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
