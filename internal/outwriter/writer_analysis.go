package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/internal/parquet"
	"github.com/huangsam/prisk/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrParquetNeedsFile is returned when parquet output is requested without an output file.
var ErrParquetNeedsFile = errors.New("parquet output requires --output-file")

// changedFileCSVHeader lists the columns of the per-file CSV export.
var changedFileCSVHeader = []string{
	"base_branch",
	"head_branch",
	"base_revision",
	"file",
	"old_path",
	"status",
	"category",
	"additions",
	"deletions",
	"hunks",
	"breaking_changes",
	"max_severity",
	"consumers",
	"untested",
	"risk_score",
	"risk_level",
}

// writePRAnalysisResults dispatches an analysis to the configured format.
func writePRAnalysisResults(a *schema.PRAnalysis, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, a)
		}, "Wrote JSON")
	case schema.MarkdownOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, RenderMarkdown(a))
			return err
		}, "Wrote Markdown")
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, a, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	case schema.ParquetOut:
		return writeAnalysisParquet(a, cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisText(w, a, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// writeAnalysisParquet writes one row per changed file to a Parquet file.
func writeAnalysisParquet(a *schema.PRAnalysis, outputFile string) error {
	if outputFile == "" {
		return ErrParquetNeedsFile
	}
	rows := parquet.ConvertPRAnalysis(a, time.Now().UTC())
	if err := parquet.WriteChangedFilesParquet(rows, outputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}

// writeAnalysisCSV writes one record per changed file with the analysis-level verdict repeated.
func writeAnalysisCSV(w io.Writer, a *schema.PRAnalysis, intFmt string) error {
	rows := parquet.ConvertPRAnalysis(a, time.Time{})
	return writeCSVWithHeader(w, changedFileCSVHeader, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.BaseBranch,
				r.HeadBranch,
				r.BaseRevision,
				r.FilePath,
				derefString(r.OldPath),
				r.Status,
				r.Category,
				fmt.Sprintf(intFmt, r.Additions),
				fmt.Sprintf(intFmt, r.Deletions),
				fmt.Sprintf(intFmt, r.Hunks),
				fmt.Sprintf(intFmt, r.BreakingChanges),
				derefString(r.MaxSeverity),
				fmt.Sprintf(intFmt, r.Consumers),
				strconv.FormatBool(r.Untested),
				fmt.Sprintf(intFmt, r.RiskScore),
				r.RiskLevel,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeAnalysisText generates and writes the human-readable report.
func writeAnalysisText(w io.Writer, a *schema.PRAnalysis, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Risk: %d/100 %s\n%s\n\n", a.RiskScore.Score, levelLabel(a.RiskScore.Level, cfg.UseColors), a.Summary); err != nil {
		return err
	}

	if err := writeFactorTable(w, a.RiskScore.Factors, cfg.Detail, fmtFloat); err != nil {
		return err
	}
	if err := writeChangedFilesTable(w, a.ChangedFiles, cfg, intFmt); err != nil {
		return err
	}
	if len(a.BreakingChanges) > 0 {
		if err := writeBreakingChangesTable(w, a.BreakingChanges, cfg); err != nil {
			return err
		}
	}
	if cfg.Detail {
		if err := writeTextDetails(w, a); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

func writeFactorTable(w io.Writer, factors []schema.RiskFactor, detail bool, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"Factor", "Score", "Weight", "Contribution"}
	if detail {
		headers = append(headers, "Details")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, f := range factors {
		row := []string{
			string(f.Name),
			fmtFloat(f.Score),
			fmt.Sprintf("%.2f", f.Weight),
			fmtFloat(f.Score * f.Weight),
		}
		if detail {
			row = append(row, strings.Join(f.Details, "; "))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeChangedFilesTable(w io.Writer, files []schema.ChangedFile, cfg *contract.Config, intFmt string) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No files changed.")
		return err
	}

	table := tablewriter.NewWriter(w)
	headers := []string{"Path", "Status", "Category", "Added", "Deleted"}
	if cfg.Detail {
		headers = append(headers, "Hunks")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	width := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, f := range files {
		row := []string{
			contract.TruncatePath(f.Path, width),
			string(f.Status),
			string(f.Category),
			fmt.Sprintf(intFmt, f.Additions),
			fmt.Sprintf(intFmt, f.Deletions),
		}
		if cfg.Detail {
			row = append(row, fmt.Sprintf(intFmt, f.Hunks))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeBreakingChangesTable(w io.Writer, changes []schema.BreakingChange, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Symbol", "Type", "Severity", "Consumers"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	width := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, bc := range changes {
		data = append(data, []string{
			contract.TruncatePath(bc.FilePath, width),
			bc.SymbolName,
			string(bc.Type),
			severityLabel(bc.Severity, cfg.UseColors),
			strconv.Itoa(len(bc.Consumers)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeTextDetails lists coverage gaps, stale doc references and impact edges.
func writeTextDetails(w io.Writer, a *schema.PRAnalysis) error {
	var sb strings.Builder
	if len(a.NewExports) > 0 {
		sb.WriteString("\nNew exports:\n")
		for _, e := range a.NewExports {
			fmt.Fprintf(&sb, "  + %s (%s)\n", e.SymbolName, e.FilePath)
		}
	}
	if len(a.TestCoverage.Gaps) > 0 {
		sb.WriteString("\nCoverage gaps:\n")
		for _, g := range a.TestCoverage.Gaps {
			state := "no test file"
			if g.TestFileExists {
				state = "test not updated"
			}
			fmt.Fprintf(&sb, "  - %s (%s)\n", g.SourceFile, state)
		}
	}
	if len(a.DocStaleness.StaleReferences) > 0 {
		sb.WriteString("\nStale doc references:\n")
		for _, r := range a.DocStaleness.StaleReferences {
			fmt.Fprintf(&sb, "  - %s:%d %s (%s)\n", r.DocFile, r.Line, r.Reference, r.Reason)
		}
	}
	if len(a.ImpactGraph.Edges) > 0 {
		fmt.Fprintf(&sb, "\nImpact edges (max depth %d):\n", a.ImpactGraph.MaxDepth)
		for _, e := range a.ImpactGraph.Edges {
			fmt.Fprintf(&sb, "  %s -> %s\n", e.From, e.To)
		}
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// levelLabel returns the risk level label, colored when enabled.
func levelLabel(level schema.RiskLevel, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(level)
	}
	return contract.GetPlainLabel(level)
}

// severityLabel returns the severity, colored when enabled.
func severityLabel(sev schema.Severity, useColors bool) string {
	if useColors {
		return contract.GetSeverityLabel(sev)
	}
	return string(sev)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
