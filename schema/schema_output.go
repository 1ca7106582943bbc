package schema

// Fixed, ascending score thresholds for risk levels.
const (
	MediumRiskThreshold   = 25
	HighRiskThreshold     = 50
	CriticalRiskThreshold = 75
)

// LevelForScore maps an overall score in [0,100] to its risk level.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= CriticalRiskThreshold:
		return CriticalRisk
	case score >= HighRiskThreshold:
		return HighRisk
	case score >= MediumRiskThreshold:
		return MediumRisk
	default:
		return LowRisk
	}
}

// FactorDefinition describes a risk factor for display purposes.
type FactorDefinition struct {
	Name        FactorName `json:"name"`
	Weight      float64    `json:"weight"`
	Description string     `json:"description"`
	Formula     string     `json:"formula"`
}

// Default weights for every risk factor. They sum to 1.0.
const (
	DefaultBreakingChangesWeight = 0.25
	DefaultUntestedChangesWeight = 0.25
	DefaultBlastRadiusWeight     = 0.20
	DefaultDiffSizeWeight        = 0.15
	DefaultChangeScatterWeight   = 0.10
	DefaultDocStalenessWeight    = 0.05
)

// GetDefaultWeights returns a fresh copy of the default factor weights.
func GetDefaultWeights() map[FactorName]float64 {
	return map[FactorName]float64{
		FactorBreakingChanges: DefaultBreakingChangesWeight,
		FactorUntestedChanges: DefaultUntestedChangesWeight,
		FactorBlastRadius:     DefaultBlastRadiusWeight,
		FactorDiffSize:        DefaultDiffSizeWeight,
		FactorChangeScatter:   DefaultChangeScatterWeight,
		FactorDocStaleness:    DefaultDocStalenessWeight,
	}
}
