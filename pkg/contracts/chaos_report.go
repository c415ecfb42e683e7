// Chaos report types produced by the scenario executor.
//
// Package contracts holds the shared data contracts exchanged between the
// chaos verification core and its external collaborators (scenario
// executor, timeline recorder, auditors). Field names and nesting are a
// compatibility surface: reports and sessions may be persisted and consumed
// by a different process or version.
package contracts

// ChaosReport is the completed output of a chaos verification run, supplied
// by the scenario executor. The core consumes it verbatim when building a
// proof bundle; it never mutates a report.
type ChaosReport struct {
	Domain    string           `json:"domain"`
	Scenarios []ScenarioReport `json:"scenarios"`
	Summary   ReportSummary    `json:"summary"`
	Coverage  ReportCoverage   `json:"coverage"`
}

// ScenarioReport describes one executed (or skipped) chaos scenario.
type ScenarioReport struct {
	Name           string            `json:"name"`
	Behavior       string            `json:"behavior,omitempty"`
	InjectionTypes []string          `json:"injection_types"`
	Passed         bool              `json:"passed"`
	Skipped        bool              `json:"skipped,omitempty"`
	DurationMs     float64           `json:"duration_ms"`
	Assertions     []AssertionResult `json:"assertions,omitempty"`
}

// AssertionResult is a single checked invariant within a scenario.
type AssertionResult struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Detail      string `json:"detail,omitempty"`
}

// ReportSummary aggregates scenario counts for verdict derivation.
type ReportSummary struct {
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	DurationMs float64 `json:"duration_ms"`
}

// ReportCoverage records which injection types and scenarios a run reached.
type ReportCoverage struct {
	RequiredInjectionTypes []string `json:"required_injection_types"`
	CoveredInjectionTypes  []string `json:"covered_injection_types"`
	ScenariosPlanned       int      `json:"scenarios_planned"`
	ScenariosExecuted      int      `json:"scenarios_executed"`
}

// ScenarioResult is the minimal per-scenario record appended to a replay
// session while recording.
type ScenarioResult struct {
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	DurationMs float64 `json:"duration_ms"`
}
