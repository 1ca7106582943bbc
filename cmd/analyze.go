package cmd

import (
	"github.com/huangsam/prisk/core"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd focused on the full pull-request risk report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo-path]",
	Short: "Report the risk of the changes between two Git references",
	Long: `Analyze the changes between --base-ref and --target-ref and report:

- Changed files, categorized as source, test, doc, config, or other
- Breaking changes to exported symbols and the files consuming them
- The blast radius: files importing the changed sources, up to --max-depth levels
- Changed sources whose conventional tests were not changed
- Documentation lines mentioning removed files or symbols
- An overall 0-100 risk score from six weighted factors

The repository is scanned for imports once per run; the resulting map is cached
across runs in the configured cache backend when the working tree is clean.

Examples:
  # Analyze the current branch against main
  prisk analyze --base-ref main

  # Markdown report for a pull request comment
  prisk analyze --base-ref origin/main --output markdown --output-file report.md

  # Per-file rows for a data warehouse
  prisk analyze --base-ref v1.2.0 --target-ref v1.3.0 --output parquet --output-file changes.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}
