package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// writeCheckResults dispatches a gate verdict to the configured format.
func writeCheckResults(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckCSV(w, result)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckMarkdown(w, result)
		}, "Wrote Markdown")
	case schema.ParquetOut:
		return fmt.Errorf("output format %s is not supported for check results", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckText(w, result, cfg.UseColors, duration)
		}, "Wrote check result")
	}
}

func writeCheckText(w io.Writer, r *schema.CheckResult, useColors bool, duration time.Duration) error {
	verdict := "✅ PASS"
	if !r.Passed {
		verdict = "❌ FAIL"
	}
	_, err := fmt.Fprintf(w,
		"%s: risk %d/100 %s (fail-on %s)\n%s..%s: %d changed files, %d breaking changes\n%s\nCheck completed in %v\n",
		verdict, r.Score, levelLabel(r.Level, useColors), contract.GetPlainLabel(r.FailOn),
		r.BaseRef, r.TargetRef, r.ChangedFiles, r.BreakingChanges, r.Summary, duration)
	return err
}

func writeCheckMarkdown(w io.Writer, r *schema.CheckResult) error {
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL"
	}
	_, err := fmt.Fprintf(w,
		"## Risk Gate: %s\n\n| Score | Level | Fail On | Changed Files | Breaking Changes |\n|------:|-------|---------|--------------:|-----------------:|\n| %d | %s | %s | %d | %d |\n\n%s\n",
		verdict, r.Score, contract.GetPlainLabel(r.Level), contract.GetPlainLabel(r.FailOn),
		r.ChangedFiles, r.BreakingChanges, r.Summary)
	return err
}

func writeCheckCSV(w io.Writer, r *schema.CheckResult) error {
	header := []string{"passed", "score", "level", "fail_on", "base_ref", "target_ref", "changed_files", "breaking_changes"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		return cw.Write([]string{
			strconv.FormatBool(r.Passed),
			strconv.Itoa(r.Score),
			string(r.Level),
			string(r.FailOn),
			r.BaseRef,
			r.TargetRef,
			strconv.Itoa(r.ChangedFiles),
			strconv.Itoa(r.BreakingChanges),
		})
	})
}
