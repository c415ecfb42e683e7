// Package proof packages a completed chaos run into a versioned,
// hash-verified proof bundle for audit and CI consumption.
//
// Building is a pure function of the chaos and timeline reports: no
// side effects, no randomness. The bundle id is content-derived and the
// integrity hash covers the entire bundle minus the hash field itself,
// so any post-build tampering is detectable by recomputation.
package proof

import (
	"errors"
	"fmt"
	"time"

	"github.com/isl-lang/chaoscore/pkg/canonicalize"
	"github.com/isl-lang/chaoscore/pkg/contracts"
)

// BundleVersion is the proof artifact format tag. Bump on any breaking
// field change; downstream auditors key off this value.
const BundleVersion = "1.0.0"

// Verdict is the overall outcome of a chaos verification run.
type Verdict string

const (
	VerdictProven     Verdict = "PROVEN"
	VerdictIncomplete Verdict = "INCOMPLETE_PROOF"
	VerdictFailed     Verdict = "FAILED"
)

// Bundle is the self-verifying proof artifact.
type Bundle struct {
	Version       string          `json:"version"`
	BundleID      string          `json:"bundle_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Domain        string          `json:"domain"`
	Verdict       Verdict         `json:"verdict"`
	Evidence      []Evidence      `json:"evidence"`
	Timeline      TimelineSection `json:"timeline"`
	Coverage      Coverage        `json:"coverage"`
	IntegrityHash string          `json:"integrity_hash"`
}

// Evidence is the per-scenario proof material.
type Evidence struct {
	Scenario       string                      `json:"scenario"`
	InjectionTypes []string                    `json:"injection_types"`
	Passed         bool                        `json:"passed"`
	Skipped        bool                        `json:"skipped,omitempty"`
	DurationMs     float64                     `json:"duration_ms"`
	Assertions     []contracts.AssertionResult `json:"assertions,omitempty"`
	Timeline       []contracts.TimelineEvent   `json:"timeline,omitempty"`
}

// TimelineSection carries the run's aggregated timeline verbatim.
type TimelineSection struct {
	TotalEvents int                       `json:"total_events"`
	Counts      map[string]int            `json:"counts"`
	Events      []contracts.TimelineEvent `json:"events"`
}

// Coverage summarizes how much of the planned chaos surface a run reached.
// Ratios are in [0, 1].
type Coverage struct {
	InjectionTypeRatio float64  `json:"injection_type_ratio"`
	ScenarioRatio      float64  `json:"scenario_ratio"`
	CoveredTypes       []string `json:"covered_types"`
	UncoveredTypes     []string `json:"uncovered_types"`
}

// BuildProofBundle assembles the proof artifact for a completed run.
// It never mutates its inputs.
func BuildProofBundle(report *contracts.ChaosReport, timeline *contracts.TimelineReport) (*Bundle, error) {
	if report == nil {
		return nil, errors.New("proof: chaos report is nil")
	}
	if timeline == nil {
		return nil, errors.New("proof: timeline report is nil")
	}

	bundle := &Bundle{
		Version:     BundleVersion,
		GeneratedAt: time.Now().UTC(),
		Domain:      report.Domain,
		Verdict:     deriveVerdict(report.Summary),
		Evidence:    buildEvidence(report, timeline),
		Timeline:    copyTimelineSection(timeline),
		Coverage:    computeCoverage(report.Coverage),
	}

	bundleID, err := deriveBundleID(report)
	if err != nil {
		return nil, err
	}
	bundle.BundleID = bundleID

	hash, err := computeIntegrityHash(bundle)
	if err != nil {
		return nil, err
	}
	bundle.IntegrityHash = hash
	return bundle, nil
}

// deriveVerdict applies the fixed decision table over summary counts.
func deriveVerdict(summary contracts.ReportSummary) Verdict {
	switch {
	case summary.Failed > 0:
		return VerdictFailed
	case summary.Skipped > 0:
		return VerdictIncomplete
	default:
		return VerdictProven
	}
}

// buildEvidence slices the timeline per scenario on scenario/behavior tags.
func buildEvidence(report *contracts.ChaosReport, timeline *contracts.TimelineReport) []Evidence {
	evidence := make([]Evidence, 0, len(report.Scenarios))
	for _, sc := range report.Scenarios {
		ev := Evidence{
			Scenario:       sc.Name,
			InjectionTypes: append([]string(nil), sc.InjectionTypes...),
			Passed:         sc.Passed,
			Skipped:        sc.Skipped,
			DurationMs:     sc.DurationMs,
			Assertions:     append([]contracts.AssertionResult(nil), sc.Assertions...),
		}
		for _, te := range timeline.Events {
			if te.Scenario() == sc.Name || (sc.Behavior != "" && te.Behavior() == sc.Behavior) {
				ev.Timeline = append(ev.Timeline, te)
			}
		}
		evidence = append(evidence, ev)
	}
	return evidence
}

func copyTimelineSection(timeline *contracts.TimelineReport) TimelineSection {
	section := TimelineSection{
		TotalEvents: timeline.TotalEvents,
		Counts:      make(map[string]int, len(timeline.Counts)),
		Events:      append([]contracts.TimelineEvent(nil), timeline.Events...),
	}
	for k, v := range timeline.Counts {
		section.Counts[k] = v
	}
	return section
}

// computeCoverage derives ratios and covered/uncovered type lists directly
// from the report's coverage section. A run with nothing required counts
// as fully covered.
func computeCoverage(cov contracts.ReportCoverage) Coverage {
	covered := make(map[string]bool, len(cov.CoveredInjectionTypes))
	for _, t := range cov.CoveredInjectionTypes {
		covered[t] = true
	}

	out := Coverage{
		CoveredTypes:   append([]string{}, cov.CoveredInjectionTypes...),
		UncoveredTypes: make([]string, 0),
	}
	hit := 0
	for _, t := range cov.RequiredInjectionTypes {
		if covered[t] {
			hit++
		} else {
			out.UncoveredTypes = append(out.UncoveredTypes, t)
		}
	}

	if len(cov.RequiredInjectionTypes) == 0 {
		out.InjectionTypeRatio = 1
	} else {
		out.InjectionTypeRatio = float64(hit) / float64(len(cov.RequiredInjectionTypes))
	}
	if cov.ScenariosPlanned <= 0 {
		out.ScenarioRatio = 1
	} else {
		out.ScenarioRatio = float64(cov.ScenariosExecuted) / float64(cov.ScenariosPlanned)
	}
	return out
}

// deriveBundleID hashes a stable projection of report identity. Scenario
// names are hashed in report order, never sorted: reordering scenarios
// is a different run and yields a different id.
func deriveBundleID(report *contracts.ChaosReport) (string, error) {
	names := make([]string, len(report.Scenarios))
	for i, sc := range report.Scenarios {
		names[i] = sc.Name
	}
	projection := struct {
		Domain    string                 `json:"domain"`
		Scenarios []string               `json:"scenarios"`
		Summary   contracts.ReportSummary `json:"summary"`
	}{
		Domain:    report.Domain,
		Scenarios: names,
		Summary:   report.Summary,
	}
	hash, err := canonicalize.CanonicalHash(projection)
	if err != nil {
		return "", fmt.Errorf("proof: derive bundle id: %w", err)
	}
	return hash, nil
}
