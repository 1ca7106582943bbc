package coverage

import (
	"context"
	"testing"

	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCandidateTestFiles(t *testing.T) {
	got := CandidateTestFiles("src/util/math.ts")

	assert.Equal(t, []string{
		"src/util/math.test.ts",
		"src/util/math.spec.ts",
		"src/util/__tests__/math.test.ts",
		"src/util/__tests__/math.spec.ts",
		"src/util/__tests__/math.ts",
		"__tests__/util/math.test.ts",
		"__tests__/util/math.spec.ts",
		"test/util/math.test.ts",
		"test/util/math.spec.ts",
		"test/util/math.ts",
		"tests/util/math.test.ts",
		"tests/util/math.spec.ts",
		"tests/util/math.ts",
	}, got[:13])
	assert.Contains(t, got, "src/util/math.test.js")
	assert.Contains(t, got, "tests/util/math.spec.cjs")
	assert.Len(t, got, 13*len(schema.SourceExtensions))
}

func TestCandidateTestFilesLayouts(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
	}{
		{"root file", "index.ts", []string{"index.test.ts", "__tests__/index.test.ts", "test/index.ts"}},
		{"no src segment", "pkg/a.ts", []string{"pkg/a.spec.ts", "__tests__/pkg/a.test.ts", "tests/pkg/a.test.ts"}},
		{"nested package", "packages/core/lib/x/y.js", []string{"packages/core/__tests__/x/y.test.js", "packages/core/test/x/y.js"}},
		{"innermost src wins", "src/vendor/src/z.ts", []string{"src/vendor/__tests__/z.test.ts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CandidateTestFiles(tt.source)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			assert.Len(t, got, len(uniq(got)))
		})
	}
}

func uniq(values []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func newFinder(files []string) *contract.MockFileFinder {
	finder := new(contract.MockFileFinder)
	finder.On("DiscoverFiles", mock.Anything, "/repo", deps.SourcePatterns(), mock.Anything).Return(files, nil)
	return finder
}

func src(path string, status schema.FileStatus) schema.ChangedFile {
	return schema.ChangedFile{Path: path, Status: status, Category: schema.CategorySource}
}

func TestAnalyzeMissingTests(t *testing.T) {
	finder := newFinder([]string{"src/util/math.ts"})
	changed := []schema.ChangedFile{src("src/util/math.ts", schema.StatusModified)}

	report, err := Analyze(context.Background(), finder, "/repo", changed, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ChangedSourceFiles)
	assert.Less(t, report.CoverageRatio, 1.0)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, "src/util/math.ts", report.Gaps[0].SourceFile)
	assert.False(t, report.Gaps[0].TestFileExists)
	assert.Equal(t, CandidateTestFiles("src/util/math.ts"), report.Gaps[0].ExpectedTestFiles)
}

func TestAnalyze(t *testing.T) {
	finder := newFinder([]string{"src/a.ts", "src/a.test.ts", "src/b.ts", "tests/b.spec.ts", "src/c.ts"})
	changed := []schema.ChangedFile{
		src("src/a.ts", schema.StatusModified),
		{Path: "src/a.test.ts", Status: schema.StatusModified, Category: schema.CategoryTest},
		src("src/b.ts", schema.StatusModified),
		src("src/c.ts", schema.StatusAdded),
		{Path: "src/__tests__/c.ts", Status: schema.StatusAdded, Category: schema.CategoryTest},
		src("src/gone.ts", schema.StatusDeleted),
		{Path: "src/gone.test.ts", Status: schema.StatusDeleted, Category: schema.CategoryTest},
	}

	report, err := Analyze(context.Background(), finder, "/repo", changed, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ChangedSourceFiles)
	assert.Equal(t, 2, report.SourceFilesWithTestChanges)
	assert.InDelta(t, 2.0/3.0, report.CoverageRatio, 1e-9)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, "src/b.ts", report.Gaps[0].SourceFile)
	assert.True(t, report.Gaps[0].TestFileExists)
}

func TestAnalyzeNoSourceChanges(t *testing.T) {
	finder := newFinder([]string{})
	changed := []schema.ChangedFile{{Path: "README.md", Status: schema.StatusModified, Category: schema.CategoryDoc}}

	report, err := Analyze(context.Background(), finder, "/repo", changed, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.CoverageRatio)
	assert.Equal(t, []schema.CoverageGap{}, report.Gaps)
}

func TestAnalyzeDiscoveryError(t *testing.T) {
	finder := new(contract.MockFileFinder)
	finder.On("DiscoverFiles", mock.Anything, "/repo", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := Analyze(context.Background(), finder, "/repo", nil, nil)
	assert.ErrorIs(t, err, assert.AnError)
}
