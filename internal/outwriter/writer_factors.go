package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeFactorDefinitions dispatches the factor definitions to the configured format.
func writeFactorDefinitions(defs []schema.FactorDefinition, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, defs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVFactors(w, defs)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMarkdownFactors(w, defs)
		}, "Wrote Markdown")
	case schema.ParquetOut:
		return fmt.Errorf("output format %s is not supported for factor definitions", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTextFactors(w, defs)
		}, "Wrote table")
	}
}

func writeTextFactors(w io.Writer, defs []schema.FactorDefinition) error {
	if _, err := fmt.Fprintln(w, "Risk score = round(sum of factor score x weight), each factor scored 0-100"); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Factor", "Weight", "Description", "Formula"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, d := range defs {
		data = append(data, []string{string(d.Name), fmt.Sprintf("%.2f", d.Weight), d.Description, d.Formula})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Levels: low < %d <= medium < %d <= high < %d <= critical\n",
		schema.MediumRiskThreshold, schema.HighRiskThreshold, schema.CriticalRiskThreshold)
	return err
}

func writeMarkdownFactors(w io.Writer, defs []schema.FactorDefinition) error {
	if _, err := fmt.Fprint(w, "| Factor | Weight | Description | Formula |\n|--------|-------:|-------------|---------|\n"); err != nil {
		return err
	}
	for _, d := range defs {
		if _, err := fmt.Fprintf(w, "| %s | %.2f | %s | %s |\n", d.Name, d.Weight, mdCell(d.Description), mdCell(d.Formula)); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFactors(w io.Writer, defs []schema.FactorDefinition) error {
	return writeCSVWithHeader(w, []string{"factor", "weight", "description", "formula"}, func(cw *csv.Writer) error {
		for _, d := range defs {
			if err := cw.Write([]string{string(d.Name), fmt.Sprintf("%.2f", d.Weight), d.Description, d.Formula}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
