// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/huangsam/prisk/schema"
)

// Sentinel errors returned by the collaborators. Callers compare with errors.Is.
var (
	// ErrFileNotFound means the path does not exist at the requested revision or on disk.
	ErrFileNotFound = errors.New("file not found")

	// ErrRefNotFound means a revision could not be resolved.
	ErrRefNotFound = errors.New("ref not found")
)

// GitClient defines the necessary operations for pull-request analysis.
// This allows the core analysis logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Repository / Reference Resolution ---

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// IsWorkingTreeDirty reports whether the working tree has uncommitted changes.
	IsWorkingTreeDirty(ctx context.Context, repoPath string) (bool, error)

	// ResolveRef returns the commit hash for ref, or ErrRefNotFound.
	ResolveRef(ctx context.Context, repoPath string, ref string) (string, error)

	// MergeBase returns the best common ancestor of two references.
	MergeBase(ctx context.Context, repoPath string, a, b string) (string, error)

	// --- Diffs ---

	// Diff returns the unified patch between two revisions, optionally limited to paths.
	Diff(ctx context.Context, repoPath string, base, head string, paths ...string) (string, error)

	// ListChangedFiles returns the files changed between two revisions with line counts.
	ListChangedFiles(ctx context.Context, repoPath string, base, head string) ([]schema.FileChange, error)

	// --- File State / Content ---

	// ReadFileAtRevision returns the content of path at rev, or ErrFileNotFound.
	ReadFileAtRevision(ctx context.Context, repoPath string, rev string, path string) (string, error)

	// SearchPattern runs a regular-expression search at rev. No matches is not an error.
	SearchPattern(ctx context.Context, repoPath string, rev string, pattern string, globs ...string) ([]schema.SearchMatch, error)

	// ListFilesAtRef returns a list of all trackable files in the repository at a specific reference.
	ListFilesAtRef(ctx context.Context, repoPath string, ref string) ([]string, error)
}

// FileFinder defines the working-tree file operations used by the scanners.
type FileFinder interface {
	// DiscoverFiles returns the sorted, repo-relative, forward-slash paths under root
	// whose base name matches one of patterns. Directories named in ignore are skipped.
	DiscoverFiles(ctx context.Context, root string, patterns []string, ignore []string) ([]string, error)

	// ReadFile returns the content of the repo-relative path, or ErrFileNotFound.
	ReadFile(ctx context.Context, root string, path string) (string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetDepsStore() CacheStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}
