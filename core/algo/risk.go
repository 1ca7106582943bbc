package algo

import (
	"errors"
	"fmt"
	"math"
	"path"

	"github.com/huangsam/prisk/schema"
)

// weightTolerance is how far the weights may drift from a sum of 1.0.
const weightTolerance = 0.001

// Tunable scorer constants.
const (
	highSeverityPoints   = 40.0
	mediumSeverityPoints = 20.0
	lowSeverityPoints    = 10.0
	consumerPoints       = 2.0  // per distinct consumer of a breaking change
	indirectFilePoints   = 10.0 // per indirectly affected file
	maxDiffLines         = 2000.0
	directoryPoints      = 12.0 // per directory beyond the first
	staleRefPoints       = 20.0
)

// RiskInput is everything the factor scorers look at.
type RiskInput struct {
	ChangedFiles    []schema.ChangedFile
	BreakingChanges []schema.BreakingChange
	TestCoverage    schema.TestCoverageReport
	DocStaleness    schema.DocStalenessReport
	ImpactGraph     schema.ImpactGraph
}

// Scorer computes a raw factor score and human-readable details.
// The calculator clamps the score to [0,100].
type Scorer func(RiskInput) (float64, []string)

// FactorSpec configures one weighted factor.
type FactorSpec struct {
	Name        schema.FactorName
	Weight      float64
	Description string
	Formula     string
	Scorer      Scorer
}

// RiskCalculator reduces factor scores into a single assessment.
type RiskCalculator struct {
	specs []FactorSpec
}

// NewRiskCalculator validates specs: names must be distinct, every weight in
// (0,1] and the weights must sum to 1.
func NewRiskCalculator(specs []FactorSpec) (*RiskCalculator, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one risk factor is required")
	}
	seen := make(map[schema.FactorName]struct{}, len(specs))
	sum := 0.0
	for _, s := range specs {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate risk factor %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Weight <= 0 || s.Weight > 1 {
			return nil, fmt.Errorf("weight for %q must be in (0, 1], got %g", s.Name, s.Weight)
		}
		if s.Scorer == nil {
			return nil, fmt.Errorf("risk factor %q has no scorer", s.Name)
		}
		sum += s.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, fmt.Errorf("risk factor weights must sum to 1.0, got %.3f", sum)
	}
	return &RiskCalculator{specs: specs}, nil
}

// Assess scores every factor and combines them into a weighted total.
func (c *RiskCalculator) Assess(in RiskInput) schema.RiskAssessment {
	factors := make([]schema.RiskFactor, 0, len(c.specs))
	total := 0.0
	for _, s := range c.specs {
		raw, details := s.Scorer(in)
		score := Clamp(raw, 0, 100)
		total += score * s.Weight
		if details == nil {
			details = []string{}
		}
		factors = append(factors, schema.RiskFactor{
			Name:        s.Name,
			Score:       score,
			Weight:      s.Weight,
			Description: s.Description,
			Details:     details,
		})
	}
	score := int(Clamp(math.Round(total), 0, 100))
	return schema.RiskAssessment{
		Score:   score,
		Level:   schema.LevelForScore(score),
		Factors: factors,
	}
}

// Definitions describes the configured factors.
func (c *RiskCalculator) Definitions() []schema.FactorDefinition {
	defs := make([]schema.FactorDefinition, 0, len(c.specs))
	for _, s := range c.specs {
		defs = append(defs, schema.FactorDefinition{
			Name:        s.Name,
			Weight:      s.Weight,
			Description: s.Description,
			Formula:     s.Formula,
		})
	}
	return defs
}

// DefaultFactorSpecs returns the six built-in factors with the given weights.
// Factors missing from weights use their default weight.
func DefaultFactorSpecs(weights map[schema.FactorName]float64) []FactorSpec {
	defaults := schema.GetDefaultWeights()
	weight := func(name schema.FactorName) float64 {
		if w, ok := weights[name]; ok {
			return w
		}
		return defaults[name]
	}
	return []FactorSpec{
		{
			Name:        schema.FactorBreakingChanges,
			Weight:      weight(schema.FactorBreakingChanges),
			Description: "Removed or altered exports that consumers depend on",
			Formula:     "40/high + 20/medium + 10/low + 2 per distinct consumer",
			Scorer:      scoreBreakingChanges,
		},
		{
			Name:        schema.FactorUntestedChanges,
			Weight:      weight(schema.FactorUntestedChanges),
			Description: "Changed source files without a changed conventional test",
			Formula:     "(1 - coverage ratio) x 100",
			Scorer:      scoreUntestedChanges,
		},
		{
			Name:        schema.FactorBlastRadius,
			Weight:      weight(schema.FactorBlastRadius),
			Description: "Files indirectly affected through imports",
			Formula:     "10 per indirectly affected file",
			Scorer:      scoreBlastRadius,
		},
		{
			Name:        schema.FactorDiffSize,
			Weight:      weight(schema.FactorDiffSize),
			Description: "Lines added and deleted",
			Formula:     "100 x log10(1 + lines) / log10(2001)",
			Scorer:      scoreDiffSize,
		},
		{
			Name:        schema.FactorChangeScatter,
			Weight:      weight(schema.FactorChangeScatter),
			Description: "How many directories and hunks the change touches",
			Formula:     "12 per directory beyond the first + 1 per hunk",
			Scorer:      scoreChangeScatter,
		},
		{
			Name:        schema.FactorDocStaleness,
			Weight:      weight(schema.FactorDocStaleness),
			Description: "Documentation referencing removed paths or symbols",
			Formula:     "20 per stale reference",
			Scorer:      scoreDocStaleness,
		},
	}
}

func scoreBreakingChanges(in RiskInput) (float64, []string) {
	counts := make(map[schema.Severity]int)
	consumers := make(map[string]struct{})
	for _, bc := range in.BreakingChanges {
		counts[bc.Severity]++
		for _, c := range bc.Consumers {
			consumers[c] = struct{}{}
		}
	}
	score := highSeverityPoints*float64(counts[schema.SeverityHigh]) +
		mediumSeverityPoints*float64(counts[schema.SeverityMedium]) +
		lowSeverityPoints*float64(counts[schema.SeverityLow]) +
		consumerPoints*float64(len(consumers))

	details := []string{}
	if len(in.BreakingChanges) > 0 {
		details = append(details,
			fmt.Sprintf("%d breaking changes (%d high, %d medium, %d low)", len(in.BreakingChanges),
				counts[schema.SeverityHigh], counts[schema.SeverityMedium], counts[schema.SeverityLow]),
			fmt.Sprintf("%d distinct consumers", len(consumers)))
	}
	return score, details
}

func scoreUntestedChanges(in RiskInput) (float64, []string) {
	cov := in.TestCoverage
	details := []string{
		fmt.Sprintf("%d of %d changed source files have test changes", cov.SourceFilesWithTestChanges, cov.ChangedSourceFiles),
	}
	return (1 - Clamp(cov.CoverageRatio, 0, 1)) * 100, details
}

func scoreBlastRadius(in RiskInput) (float64, []string) {
	n := len(in.ImpactGraph.IndirectlyAffected)
	details := []string{
		fmt.Sprintf("%d files indirectly affected within depth %d", n, in.ImpactGraph.MaxDepth),
	}
	return indirectFilePoints * float64(n), details
}

func scoreDiffSize(in RiskInput) (float64, []string) {
	additions, deletions := 0, 0
	for _, f := range in.ChangedFiles {
		additions += f.Additions
		deletions += f.Deletions
	}
	lines := float64(additions + deletions)
	details := []string{fmt.Sprintf("+%d/-%d lines across %d files", additions, deletions, len(in.ChangedFiles))}
	return 100 * math.Log10(1+lines) / math.Log10(1+maxDiffLines), details
}

func scoreChangeScatter(in RiskInput) (float64, []string) {
	dirs := make(map[string]struct{})
	hunks := 0
	for _, f := range in.ChangedFiles {
		dirs[path.Dir(f.Path)] = struct{}{}
		hunks += f.Hunks
	}
	score := directoryPoints*float64(max(len(dirs)-1, 0)) + float64(hunks)
	details := []string{fmt.Sprintf("%d directories, %d hunks", len(dirs), hunks)}
	return score, details
}

func scoreDocStaleness(in RiskInput) (float64, []string) {
	n := len(in.DocStaleness.StaleReferences)
	details := []string{fmt.Sprintf("%d stale references in %d checked docs", n, len(in.DocStaleness.CheckedFiles))}
	return staleRefPoints * float64(n), details
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
