package contract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// LocalFileFinder implements the FileFinder interface on the local filesystem.
type LocalFileFinder struct{}

var _ FileFinder = &LocalFileFinder{} // Compile-time check

// NewLocalFileFinder creates a new instance of the local file finder.
func NewLocalFileFinder() *LocalFileFinder {
	return &LocalFileFinder{}
}

// DiscoverFiles implements the FileFinder interface.
// Patterns are matched against the base name with filepath.Match.
func (f *LocalFileFinder) DiscoverFiles(ctx context.Context, root string, patterns []string, ignore []string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable subtrees are skipped, the root itself is not.
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != root && (slices.Contains(ignore, d.Name()) || ShouldIgnore(rel+"/", ignore)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ShouldIgnore(rel, ignore) {
			return nil
		}
		if matchesAny(d.Name(), patterns) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover files in %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

// ReadFile implements the FileFinder interface.
func (f *LocalFileFinder) ReadFile(_ context.Context, root string, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, ErrFileNotFound)
	} else if err != nil {
		return "", err
	}
	return string(data), nil
}

// matchesAny reports whether name matches any glob pattern.
func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
