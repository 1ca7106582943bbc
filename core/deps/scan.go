package deps

import (
	"context"
	"sync"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// ScanOptions controls a reverse-dependency scan.
type ScanOptions struct {
	Workers  int      // Concurrent file readers (at least 1)
	Excludes []string // Extra ignore patterns on top of schema.IgnoredDirs
}

// fileImports holds the specifiers extracted from one file.
type fileImports struct {
	path  string
	specs []string
}

// SourcePatterns returns the discovery globs for all source extensions.
func SourcePatterns() []string {
	patterns := make([]string, 0, len(schema.SourceExtensions))
	for _, ext := range schema.SourceExtensions {
		patterns = append(patterns, "*"+ext)
	}
	return patterns
}

// IgnoreList returns the default ignored directories plus the given excludes.
func IgnoreList(excludes []string) []string {
	ignore := make([]string, 0, len(schema.IgnoredDirs)+len(excludes))
	ignore = append(ignore, schema.IgnoredDirs...)
	return append(ignore, excludes...)
}

// Scan discovers every source file under repoRoot and builds the reverse-dependency map.
// Files that cannot be read are skipped.
func Scan(ctx context.Context, finder contract.FileFinder, repoRoot string, opts ScanOptions) (schema.ReverseDependencyMap, error) {
	files, err := finder.DiscoverFiles(ctx, repoRoot, SourcePatterns(), IgnoreList(opts.Excludes))
	if err != nil {
		return schema.ReverseDependencyMap{}, err
	}
	imports := readImports(ctx, finder, repoRoot, files, max(opts.Workers, 1))
	if err := ctx.Err(); err != nil {
		return schema.ReverseDependencyMap{}, err
	}
	return BuildReverseMap(files, imports), nil
}

// readImports extracts specifiers from files using a bounded worker pool.
func readImports(ctx context.Context, finder contract.FileFinder, repoRoot string, files []string, workers int) []fileImports {
	fileCh := make(chan string, len(files))
	resultCh := make(chan fileImports, len(files))
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for f := range fileCh {
				if ctx.Err() != nil {
					continue
				}
				content, err := finder.ReadFile(ctx, repoRoot, f)
				if err != nil {
					continue
				}
				resultCh <- fileImports{path: f, specs: ExtractImportSpecifiers(content)}
			}
		})
	}

	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	wg.Wait()
	close(resultCh)

	results := make([]fileImports, 0, len(files))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// BuildReverseMap resolves every relative specifier against files and inverts the edges.
// Unresolved relative targets are kept under Dangling.
func BuildReverseMap(files []string, imports []fileImports) schema.ReverseDependencyMap {
	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f] = struct{}{}
	}

	m := schema.NewReverseDependencyMap()
	for _, fi := range imports {
		for _, spec := range fi.specs {
			if target, ok := ResolveSpecifier(fi.path, spec, known); ok {
				if target != fi.path {
					m.Dependents[target] = append(m.Dependents[target], fi.path)
				}
				continue
			}
			if joined, ok := JoinSpecifier(fi.path, spec); ok {
				m.Dangling[joined] = append(m.Dangling[joined], fi.path)
			}
		}
	}
	for k, v := range m.Dependents {
		m.Dependents[k] = schema.SortedUnique(v)
	}
	for k, v := range m.Dangling {
		m.Dangling[k] = schema.SortedUnique(v)
	}
	return m
}
