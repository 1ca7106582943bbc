package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/prisk/core/impact"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// maxExpectedTestFiles caps the candidate list shown per coverage gap.
const maxExpectedTestFiles = 3

// RenderMarkdown renders an analysis as a Markdown report.
// The output depends only on the analysis, so identical inputs render identically.
func RenderMarkdown(a *schema.PRAnalysis) string {
	var sb strings.Builder
	writeMarkdownHeader(&sb, a)
	writeMarkdownRisk(&sb, a.RiskScore)
	fmt.Fprintf(&sb, "## Summary\n\n%s\n\n", a.Summary)
	writeMarkdownChangedFiles(&sb, a.ChangedFiles)
	writeMarkdownBreakingChanges(&sb, a.BreakingChanges, a.NewExports)
	writeMarkdownCoverage(&sb, a.TestCoverage)
	writeMarkdownDocStaleness(&sb, a.DocStaleness)
	writeMarkdownImpact(&sb, a.ImpactGraph)
	return sb.String()
}

func writeMarkdownHeader(w io.Writer, a *schema.PRAnalysis) {
	fmt.Fprintf(w, "# PR Risk Analysis: `%s` → `%s`\n\n", a.BaseBranch, a.HeadBranch)
	if a.BaseRevision != "" {
		fmt.Fprintf(w, "Merge base: `%s`\n\n", shortRevision(a.BaseRevision))
	}
}

func writeMarkdownRisk(w io.Writer, r schema.RiskAssessment) {
	fmt.Fprintf(w, "## Risk Score: %d/100 (%s)\n\n", r.Score, contract.GetPlainLabel(r.Level))
	fmt.Fprintln(w, "| Factor | Score | Weight | Contribution | Details |")
	fmt.Fprintln(w, "|--------|------:|-------:|-------------:|---------|")
	for _, f := range r.Factors {
		fmt.Fprintf(w, "| %s | %.1f | %.2f | %.1f | %s |\n",
			f.Name, f.Score, f.Weight, f.Score*f.Weight, mdCell(strings.Join(f.Details, "; ")))
	}
	fmt.Fprintln(w)
}

func writeMarkdownChangedFiles(w io.Writer, files []schema.ChangedFile) {
	fmt.Fprintf(w, "## Changed Files (%d)\n\n", len(files))
	if len(files) == 0 {
		fmt.Fprint(w, "_No files changed._\n\n")
		return
	}
	fmt.Fprintln(w, "| File | Status | Category | + | - |")
	fmt.Fprintln(w, "|------|--------|----------|--:|--:|")
	for _, f := range files {
		name := "`" + mdCell(f.Path) + "`"
		if f.OldPath != "" {
			name = fmt.Sprintf("`%s` (from `%s`)", mdCell(f.Path), mdCell(f.OldPath))
		}
		fmt.Fprintf(w, "| %s | %s | %s | %d | %d |\n", name, f.Status, f.Category, f.Additions, f.Deletions)
	}
	fmt.Fprintln(w)
}

func writeMarkdownBreakingChanges(w io.Writer, changes []schema.BreakingChange, exports []schema.NewExport) {
	fmt.Fprintf(w, "## Breaking Changes (%d)\n\n", len(changes))
	if len(changes) == 0 {
		fmt.Fprint(w, "_No breaking changes detected._\n\n")
	} else {
		fmt.Fprintln(w, "| File | Symbol | Type | Severity | Consumers |")
		fmt.Fprintln(w, "|------|--------|------|----------|----------:|")
		for _, bc := range changes {
			fmt.Fprintf(w, "| `%s` | `%s` | %s | %s | %d |\n",
				mdCell(bc.FilePath), mdCell(bc.SymbolName), bc.Type, bc.Severity, len(bc.Consumers))
		}
		fmt.Fprintln(w)
	}

	if len(exports) > 0 {
		fmt.Fprintf(w, "### New Exports (%d)\n\n", len(exports))
		for _, e := range exports {
			fmt.Fprintf(w, "- `%s` in `%s`\n", e.SymbolName, e.FilePath)
		}
		fmt.Fprintln(w)
	}
}

func writeMarkdownCoverage(w io.Writer, c schema.TestCoverageReport) {
	fmt.Fprint(w, "## Test Coverage\n\n")
	fmt.Fprintf(w, "- Changed source files: %d\n", c.ChangedSourceFiles)
	fmt.Fprintf(w, "- With test changes: %d\n", c.SourceFilesWithTestChanges)
	fmt.Fprintf(w, "- Coverage ratio: %.0f%%\n\n", c.CoverageRatio*100)
	if len(c.Gaps) == 0 {
		return
	}

	fmt.Fprintf(w, "### Gaps (%d)\n\n", len(c.Gaps))
	fmt.Fprintln(w, "| Source File | Test File Exists | Expected Test Files |")
	fmt.Fprintln(w, "|-------------|------------------|---------------------|")
	for _, g := range c.Gaps {
		exists := "no"
		if g.TestFileExists {
			exists = "yes"
		}
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", mdCell(g.SourceFile), exists, formatExpected(g.ExpectedTestFiles))
	}
	fmt.Fprintln(w)
}

func writeMarkdownDocStaleness(w io.Writer, d schema.DocStalenessReport) {
	fmt.Fprintf(w, "## Documentation Staleness (%d)\n\n", len(d.StaleReferences))
	if len(d.StaleReferences) == 0 {
		fmt.Fprintf(w, "_No stale references found in %d doc files._\n\n", len(d.CheckedFiles))
		return
	}
	for _, r := range d.StaleReferences {
		fmt.Fprintf(w, "- `%s:%d` references `%s`: %s\n", r.DocFile, r.Line, r.Reference, r.Reason)
	}
	fmt.Fprintln(w)
}

func writeMarkdownImpact(w io.Writer, g schema.ImpactGraph) {
	fmt.Fprint(w, "## Impact Graph\n\n")
	direct, indirect, edges := impact.Stats(g)
	fmt.Fprintf(w, "- Directly changed: %d\n", direct)
	fmt.Fprintf(w, "- Indirectly affected: %d\n", indirect)
	fmt.Fprintf(w, "- Max depth: %d\n\n", g.MaxDepth)
	if edges == 0 {
		return
	}

	fmt.Fprintf(w, "### Edges (%d)\n\n", edges)
	for _, e := range g.Edges {
		fmt.Fprintf(w, "- `%s` %s `%s`\n", e.From, e.Type, e.To)
	}
	fmt.Fprintln(w)
}

// formatExpected lists the first few candidate test paths.
func formatExpected(paths []string) string {
	if len(paths) == 0 {
		return "-"
	}
	shown := paths[:min(len(paths), maxExpectedTestFiles)]
	quoted := make([]string, len(shown))
	for i, p := range shown {
		quoted[i] = "`" + mdCell(p) + "`"
	}
	out := strings.Join(quoted, ", ")
	if rest := len(paths) - len(shown); rest > 0 {
		out += fmt.Sprintf(" (+%d more)", rest)
	}
	return out
}

// mdCell escapes characters that would break a Markdown table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// shortRevision abbreviates a full object id.
func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
