// Package session implements the event recording and playback model of the
// chaos verification core.
//
// A Recorder accumulates serialized chaos events, timeline slices, and
// scenario results into a ReplaySession during a single recording pass. An
// exported session is an immutable snapshot: it can be persisted, handed
// to another process, and replayed bit-for-bit by a Player reconstructed
// from the session's stored seed.
package session

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/isl-lang/chaoscore/pkg/contracts"
)

// MetadataEventsRoot is the metadata key under which ExportSession records
// the merkle root over the serialized event sequence.
const MetadataEventsRoot = "events_root"

// Session is the recorded, serializable history of one chaos run.
// Insertion order of Events is execution order and is significant.
type Session struct {
	ID              string                    `json:"id"`
	Seed            uint32                    `json:"seed"`
	CreatedAt       time.Time                 `json:"created_at"`
	Events          []json.RawMessage         `json:"events"`
	Timeline        []contracts.TimelineEvent `json:"timeline"`
	ScenarioResults []ScenarioRecord          `json:"scenario_results"`
	Metadata        map[string]interface{}    `json:"metadata,omitempty"`
}

// ScenarioRecord closes out one scenario: its verdict plus the ids of the
// events injected while it ran, in injection order.
type ScenarioRecord struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	DurationMs float64  `json:"duration_ms"`
	EventIDs   []string `json:"event_ids"`
}

// sessionID derives the session identity from creation time and seed.
// Identity is reproducible from the session contents, never random.
func sessionID(createdAt time.Time, seed uint32) string {
	return fmt.Sprintf("chaos-%d-%d", createdAt.UnixMilli(), seed)
}

// Clone returns a deep, independent copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := &Session{
		ID:        s.ID,
		Seed:      s.Seed,
		CreatedAt: s.CreatedAt,
	}
	cp.Events = make([]json.RawMessage, len(s.Events))
	for i, raw := range s.Events {
		b := make(json.RawMessage, len(raw))
		copy(b, raw)
		cp.Events[i] = b
	}
	cp.Timeline = make([]contracts.TimelineEvent, len(s.Timeline))
	for i, ev := range s.Timeline {
		cp.Timeline[i] = cloneTimelineEvent(ev)
	}
	cp.ScenarioResults = make([]ScenarioRecord, len(s.ScenarioResults))
	for i, sr := range s.ScenarioResults {
		ids := make([]string, len(sr.EventIDs))
		copy(ids, sr.EventIDs)
		cp.ScenarioResults[i] = ScenarioRecord{
			Name:       sr.Name,
			Passed:     sr.Passed,
			DurationMs: sr.DurationMs,
			EventIDs:   ids,
		}
	}
	if s.Metadata != nil {
		cp.Metadata = cloneMap(s.Metadata)
	}
	return cp
}

func cloneTimelineEvent(ev contracts.TimelineEvent) contracts.TimelineEvent {
	cp := ev
	if ev.Data != nil {
		cp.Data = cloneMap(ev.Data)
	}
	return cp
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneAny(e)
		}
		return s
	default:
		return v
	}
}

//go:embed replay_session.schema.json
var sessionSchemaJSON string

var sessionSchema = jsonschema.MustCompileString("replay_session.schema.json", sessionSchemaJSON)

// ImportSession decodes a persisted session document. Structural problems
// (malformed JSON, schema violations) fail fast: they indicate a corrupted
// artifact rather than an expected chaos outcome.
func ImportSession(data []byte) (*Session, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session: malformed session document: %w", err)
	}
	if err := sessionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("session: session document failed schema validation: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode session: %w", err)
	}
	return &s, nil
}

// ExportJSON serializes the session for storage or transmission.
func (s *Session) ExportJSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encode session: %w", err)
	}
	return data, nil
}
