// Package coverage checks whether changed source files came with changed tests.
package coverage

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// testDirs are the top-level directories that mirror the source tree.
var testDirs = []string{"test", "tests"}

// CandidateTestFiles lists the conventional test locations for a source file,
// without duplicates and in a fixed order.
func CandidateTestFiles(sourcePath string) []string {
	dir := path.Dir(sourcePath)
	if dir == "." {
		dir = ""
	}
	name := strings.TrimSuffix(path.Base(sourcePath), path.Ext(sourcePath))
	root, sub := splitSourceRoot(dir)

	var out []string
	seen := make(map[string]struct{})
	add := func(parts ...string) {
		p := path.Join(parts...)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, ext := range schema.SourceExtensions {
		test, spec, plain := name+".test"+ext, name+".spec"+ext, name+ext
		add(dir, test)
		add(dir, spec)
		add(dir, "__tests__", test)
		add(dir, "__tests__", spec)
		add(dir, "__tests__", plain)
		add(root, "__tests__", sub, test)
		add(root, "__tests__", sub, spec)
		for _, td := range testDirs {
			add(root, td, sub, test)
			add(root, td, sub, spec)
			add(root, td, sub, plain)
		}
	}
	return out
}

// splitSourceRoot splits dir around its innermost src or lib segment.
// Without one, the whole directory is the subpath.
func splitSourceRoot(dir string) (root, sub string) {
	if dir == "" {
		return "", ""
	}
	segments := strings.Split(dir, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "src" || segments[i] == "lib" {
			return strings.Join(segments[:i], "/"), strings.Join(segments[i+1:], "/")
		}
	}
	return "", dir
}

// Analyze reports which changed source files lack a changed conventional test.
// Deleted sources are not counted. With no changed sources the ratio is 1.
func Analyze(ctx context.Context, finder contract.FileFinder, root string, changed []schema.ChangedFile, excludes []string) (schema.TestCoverageReport, error) {
	discovered, err := finder.DiscoverFiles(ctx, root, deps.SourcePatterns(), deps.IgnoreList(excludes))
	if err != nil {
		return schema.TestCoverageReport{}, fmt.Errorf("discover test files: %w", err)
	}
	onDisk := make(map[string]struct{}, len(discovered))
	for _, f := range discovered {
		onDisk[f] = struct{}{}
	}
	changedNow := make(map[string]struct{}, len(changed))
	for _, f := range changed {
		if f.Status != schema.StatusDeleted {
			changedNow[f.Path] = struct{}{}
		}
	}

	report := schema.TestCoverageReport{Gaps: make([]schema.CoverageGap, 0)}
	for _, f := range changed {
		if f.Category != schema.CategorySource || f.Status == schema.StatusDeleted {
			continue
		}
		report.ChangedSourceFiles++

		candidates := CandidateTestFiles(f.Path)
		exists, covered := false, false
		for _, c := range candidates {
			_, disk := onDisk[c]
			_, inChange := changedNow[c]
			exists = exists || disk || inChange
			covered = covered || inChange
		}
		if covered {
			report.SourceFilesWithTestChanges++
			continue
		}
		report.Gaps = append(report.Gaps, schema.CoverageGap{
			SourceFile:        f.Path,
			TestFileExists:    exists,
			ExpectedTestFiles: candidates,
		})
	}

	report.CoverageRatio = 1
	if report.ChangedSourceFiles > 0 {
		report.CoverageRatio = float64(report.SourceFilesWithTestChanges) / float64(report.ChangedSourceFiles)
	}
	slices.SortFunc(report.Gaps, func(a, b schema.CoverageGap) int {
		return strings.Compare(a.SourceFile, b.SourceFile)
	})
	return report, nil
}
