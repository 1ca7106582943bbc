// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"golang.org/x/term"
)

// WritePRAnalysis outputs an analysis, dispatching based on the output format configured.
func WritePRAnalysis(analysis *schema.PRAnalysis, cfg *contract.Config, duration time.Duration) error {
	return writePRAnalysisResults(analysis, cfg, duration)
}

// WriteCheckResult outputs the verdict of a risk gate check.
func WriteCheckResult(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	return writeCheckResults(result, cfg, duration)
}

// WriteFactors outputs the active risk factor definitions.
func WriteFactors(defs []schema.FactorDefinition, cfg *contract.Config) error {
	return writeFactorDefinitions(defs, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Status + Category + Added + Deleted with borders/padding
	baseWidth := 40

	// Hunks column
	if cfg.Detail {
		baseWidth += 8
	}

	// Table borders, separators, and padding
	baseWidth += 10

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
