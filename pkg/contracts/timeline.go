// Timeline types produced by the external timeline recorder.
package contracts

import "time"

// TimelineEvent is a timestamped observation of the system under test.
// Data is an open payload; slicing for proof evidence keys off the
// "scenario" and "behavior" entries when present.
type TimelineEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	DurationMs float64                `json:"duration_ms,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// TimelineReport aggregates a run's timeline for proof packaging.
type TimelineReport struct {
	TotalEvents int             `json:"total_events"`
	Counts      map[string]int  `json:"counts"`
	Events      []TimelineEvent `json:"events"`
}

// Scenario returns the scenario tag of the event, if any.
func (e TimelineEvent) Scenario() string {
	if e.Data == nil {
		return ""
	}
	if s, ok := e.Data["scenario"].(string); ok {
		return s
	}
	return ""
}

// Behavior returns the behavior tag of the event, if any.
func (e TimelineEvent) Behavior() string {
	if e.Data == nil {
		return ""
	}
	if s, ok := e.Data["behavior"].(string); ok {
		return s
	}
	return ""
}
