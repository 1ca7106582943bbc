// Package parquet exports pull-request analyses to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/prisk/schema"
	"github.com/parquet-go/parquet-go"
)

// ChangedFileRow is one changed file of an analysis, flattened with the analysis-level verdict.
type ChangedFileRow struct {
	// AnalyzedAt is when the analysis ran (stored as TIMESTAMP with nanosecond precision)
	AnalyzedAt time.Time `parquet:"analyzed_at,snappy"`

	BaseBranch   string `parquet:"base_branch,snappy,dict"`
	HeadBranch   string `parquet:"head_branch,snappy,dict"`
	BaseRevision string `parquet:"base_revision,snappy,dict"`

	// FilePath is the repo-relative path at the head revision
	FilePath string `parquet:"file_path,snappy"`

	// OldPath is the previous path for renames and copies (nullable)
	OldPath *string `parquet:"old_path,optional,snappy"`

	Status    string `parquet:"status,snappy,dict"`
	Category  string `parquet:"category,snappy,dict"`
	Additions int32  `parquet:"additions,snappy"`
	Deletions int32  `parquet:"deletions,snappy"`
	Hunks     int32  `parquet:"hunks,snappy"`

	// BreakingChanges counts the API breaks detected in this file
	BreakingChanges int32 `parquet:"breaking_changes,snappy"`

	// MaxSeverity is the worst severity among this file's breaks (nullable)
	MaxSeverity *string `parquet:"max_severity,optional,snappy"`

	// Consumers counts the distinct files importing this file's broken exports
	Consumers int32 `parquet:"consumers,snappy"`

	// Untested is set for changed source files without a changed conventional test
	Untested bool `parquet:"untested,snappy"`

	RiskScore int32  `parquet:"risk_score,snappy"`
	RiskLevel string `parquet:"risk_level,snappy,dict"`
}

// severityRank orders severities for MaxSeverity.
var severityRank = map[schema.Severity]int{
	schema.SeverityLow:    1,
	schema.SeverityMedium: 2,
	schema.SeverityHigh:   3,
}

// ConvertPRAnalysis flattens an analysis into one row per changed file, in path order.
func ConvertPRAnalysis(a *schema.PRAnalysis, analyzedAt time.Time) []ChangedFileRow {
	untested := make(map[string]struct{}, len(a.TestCoverage.Gaps))
	for _, gap := range a.TestCoverage.Gaps {
		untested[gap.SourceFile] = struct{}{}
	}
	breaks := make(map[string][]schema.BreakingChange)
	for _, bc := range a.BreakingChanges {
		breaks[bc.FilePath] = append(breaks[bc.FilePath], bc)
	}

	rows := make([]ChangedFileRow, 0, len(a.ChangedFiles))
	for _, f := range a.ChangedFiles {
		row := ChangedFileRow{
			AnalyzedAt:   analyzedAt,
			BaseBranch:   a.BaseBranch,
			HeadBranch:   a.HeadBranch,
			BaseRevision: a.BaseRevision,
			FilePath:     f.Path,
			Status:       string(f.Status),
			Category:     string(f.Category),
			Additions:    int32(f.Additions),
			Deletions:    int32(f.Deletions),
			Hunks:        int32(f.Hunks),
			RiskScore:    int32(a.RiskScore.Score),
			RiskLevel:    string(a.RiskScore.Level),
		}
		if f.OldPath != "" {
			oldPath := f.OldPath
			row.OldPath = &oldPath
		}
		_, row.Untested = untested[f.Path]

		var consumers []string
		var worst schema.Severity
		for _, bc := range breaks[f.Path] {
			row.BreakingChanges++
			consumers = append(consumers, bc.Consumers...)
			if severityRank[bc.Severity] > severityRank[worst] {
				worst = bc.Severity
			}
		}
		row.Consumers = int32(len(schema.SortedUnique(consumers)))
		if worst != "" {
			sev := string(worst)
			row.MaxSeverity = &sev
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteChangedFilesParquet writes the rows to a Parquet file at outputPath.
func WriteChangedFilesParquet(data []ChangedFileRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the ChangedFileRow struct tags
	writer := parquet.NewGenericWriter[ChangedFileRow](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
