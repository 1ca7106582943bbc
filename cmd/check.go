package cmd

import (
	"github.com/huangsam/prisk/core"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [repo-path]",
	Short: "Fail the build when a change reaches a risk level (for CI/CD pipelines)",
	Long: `Run the full analysis and exit with status 1 when the risk level reaches --fail-on.

When GITHUB_OUTPUT is set, the step outputs risk-score, risk-level and a Markdown
report are appended to it for later workflow steps.

Default threshold: high

Examples:
  # Gate a pull request against main
  prisk check --base-ref origin/main --target-ref HEAD

  # Stricter gate for a release branch
  prisk check --base-ref v1.0.0 --target-ref release/1.1 --fail-on medium`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Risk check failed", err)
		}
	},
}
