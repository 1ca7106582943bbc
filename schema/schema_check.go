package schema

// CheckResult holds the results of a risk gate check.
type CheckResult struct {
	Passed          bool      `json:"passed"`
	Score           int       `json:"score"`
	Level           RiskLevel `json:"level"`
	FailOn          RiskLevel `json:"failOn"`
	BaseRef         string    `json:"baseRef"`
	TargetRef       string    `json:"targetRef"`
	ChangedFiles    int       `json:"changedFiles"`
	BreakingChanges int       `json:"breakingChanges"`
	Summary         string    `json:"summary"`
}
