package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outputConfig returns a config that writes the given format to a temp file.
func outputConfig(t *testing.T, mode schema.OutputMode, name string) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:       mode,
		OutputFile:   filepath.Join(t.TempDir(), name),
		Precision:    1,
		Workers:      4,
		Width:        120,
		CacheBackend: schema.SQLiteBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(content)
}

func TestWritePRAnalysisText(t *testing.T) {
	cfg := outputConfig(t, schema.TextOut, "report.txt")
	cfg.Detail = true
	require.NoError(t, WritePRAnalysis(sampleAnalysis(), cfg, 2*time.Second))

	out := readOutput(t, cfg)
	assert.Contains(t, out, "Risk: 58/100")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "breaking_changes")
	assert.Contains(t, out, "src/parser.ts")
	assert.Contains(t, out, "parse")
	assert.Contains(t, out, "Coverage gaps:")
	assert.Contains(t, out, "src/app.ts -> src/parser.ts")
	assert.Contains(t, out, "Analysis completed in 2s with 4 workers. Cache backend: sqlite")
}

func TestWritePRAnalysisTextNoChanges(t *testing.T) {
	cfg := outputConfig(t, schema.TextOut, "report.txt")
	a := &schema.PRAnalysis{Summary: "No changes between main and HEAD. Risk is low (0/100)."}
	require.NoError(t, WritePRAnalysis(a, cfg, time.Second))

	out := readOutput(t, cfg)
	assert.Contains(t, out, "No files changed.")
	assert.NotContains(t, out, "Coverage gaps:")
}

func TestWritePRAnalysisJSON(t *testing.T) {
	cfg := outputConfig(t, schema.JSONOut, "report.json")
	require.NoError(t, WritePRAnalysis(sampleAnalysis(), cfg, time.Second))

	var decoded schema.PRAnalysis
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
	assert.Equal(t, *sampleAnalysis(), decoded)
	assert.Contains(t, readOutput(t, cfg), "\n  \"baseBranch\": \"main\"")
}

func TestWritePRAnalysisMarkdown(t *testing.T) {
	cfg := outputConfig(t, schema.MarkdownOut, "report.md")
	a := sampleAnalysis()
	require.NoError(t, WritePRAnalysis(a, cfg, time.Second))
	assert.Equal(t, RenderMarkdown(a), readOutput(t, cfg))
}

func TestWritePRAnalysisCSV(t *testing.T) {
	cfg := outputConfig(t, schema.CSVOut, "report.csv")
	require.NoError(t, WritePRAnalysis(sampleAnalysis(), cfg, time.Second))

	records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 3 files

	assert.Equal(t, changedFileCSVHeader, records[0])
	api := records[2]
	assert.Equal(t, "src/api.ts", api[3])
	assert.Equal(t, "src/client.ts", api[4])
	assert.Equal(t, "true", api[13])
	parser := records[3]
	assert.Equal(t, "1", parser[10])
	assert.Equal(t, "high", parser[11])
	assert.Equal(t, "2", parser[12])
	assert.Equal(t, "58", parser[14])
	assert.Equal(t, "high", parser[15])
}

func TestWritePRAnalysisParquet(t *testing.T) {
	cfg := outputConfig(t, schema.ParquetOut, "report.parquet")
	require.NoError(t, WritePRAnalysis(sampleAnalysis(), cfg, time.Second))

	file, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	stat, err := file.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(file, stat.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(3), pf.NumRows())
}

func TestWritePRAnalysisParquetNeedsFile(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	assert.ErrorIs(t, WritePRAnalysis(sampleAnalysis(), cfg, time.Second), ErrParquetNeedsFile)
}

func TestWriteCheckResult(t *testing.T) {
	result := &schema.CheckResult{
		Passed: false, Score: 80, Level: schema.CriticalRisk, FailOn: schema.HighRisk,
		BaseRef: "main", TargetRef: "HEAD", ChangedFiles: 5, BreakingChanges: 2, Summary: "Risk is critical.",
	}

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, "check.txt")
		require.NoError(t, WriteCheckResult(result, cfg, time.Second))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "FAIL: risk 80/100")
		assert.Contains(t, out, "main..HEAD: 5 changed files, 2 breaking changes")
	})

	t.Run("json", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, "check.json")
		require.NoError(t, WriteCheckResult(result, cfg, time.Second))
		var decoded schema.CheckResult
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
		assert.Equal(t, *result, decoded)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, "check.csv")
		require.NoError(t, WriteCheckResult(result, cfg, time.Second))
		assert.Equal(t,
			"passed,score,level,fail_on,base_ref,target_ref,changed_files,breaking_changes\nfalse,80,critical,high,main,HEAD,5,2\n",
			readOutput(t, cfg))
	})

	t.Run("markdown", func(t *testing.T) {
		cfg := outputConfig(t, schema.MarkdownOut, "check.md")
		require.NoError(t, WriteCheckResult(result, cfg, time.Second))
		assert.Contains(t, readOutput(t, cfg), "## Risk Gate: FAIL")
	})

	t.Run("parquet unsupported", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, "check.parquet")
		assert.Error(t, WriteCheckResult(result, cfg, time.Second))
	})
}

func TestWriteFactors(t *testing.T) {
	defs := []schema.FactorDefinition{
		{Name: schema.FactorBreakingChanges, Weight: 0.25, Description: "Severity of API breaks", Formula: "min(100, 40*high + 20*medium + 5*low)"},
		{Name: schema.FactorDiffSize, Weight: 0.15, Description: "Lines changed", Formula: "100*log10(1+lines)/log10(2001)"},
	}

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, "factors.txt")
		require.NoError(t, WriteFactors(defs, cfg))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "breaking_changes")
		assert.Contains(t, out, "0.25")
		assert.Contains(t, out, "Levels: low < 25 <= medium < 50 <= high < 75 <= critical")
	})

	t.Run("json", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, "factors.json")
		require.NoError(t, WriteFactors(defs, cfg))
		var decoded []schema.FactorDefinition
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
		assert.Equal(t, defs, decoded)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, "factors.csv")
		require.NoError(t, WriteFactors(defs, cfg))
		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"factor", "weight", "description", "formula"}, records[0])
		assert.Equal(t, "diff_size", records[2][0])
	})

	t.Run("markdown", func(t *testing.T) {
		cfg := outputConfig(t, schema.MarkdownOut, "factors.md")
		require.NoError(t, WriteFactors(defs, cfg))
		assert.Contains(t, readOutput(t, cfg), "| diff_size | 0.15 | Lines changed |")
	})
}

func TestLabelsHonorColorSetting(t *testing.T) {
	assert.Equal(t, "High", levelLabel(schema.HighRisk, false))
	assert.Equal(t, "medium", severityLabel(schema.SeverityMedium, false))
	assert.Contains(t, levelLabel(schema.CriticalRisk, true), "Critical")
	assert.Contains(t, severityLabel(schema.SeverityHigh, true), "high")
}
