// Package chaos defines the unit of recorded chaos: a single injected
// fault or probe, its parameters, and the outcome observed once it ran.
//
// Events are immutable once recorded except for outcome attachment, which
// happens exactly once per event. The serialized form round-trips exactly;
// a session written by one process replays bit-for-bit in another.
package chaos

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FaultType classifies what kind of fault an event injected.
type FaultType string

const (
	FaultLatency            FaultType = "latency"
	FaultError              FaultType = "error"
	FaultNetworkPartition   FaultType = "network_partition"
	FaultProcessCrash       FaultType = "process_crash"
	FaultClockSkew          FaultType = "clock_skew"
	FaultResourceExhaustion FaultType = "resource_exhaustion"
	FaultProbe              FaultType = "probe"
	FaultCustom             FaultType = "custom"
)

var knownFaultTypes = map[FaultType]bool{
	FaultLatency:            true,
	FaultError:              true,
	FaultNetworkPartition:   true,
	FaultProcessCrash:       true,
	FaultClockSkew:          true,
	FaultResourceExhaustion: true,
	FaultProbe:              true,
	FaultCustom:             true,
}

// ErrOutcomeAttached signals a second outcome attachment on the same event.
var ErrOutcomeAttached = errors.New("chaos: outcome already attached")

// Payload is the open key-value parameter bag carried by an event.
// Typed views over known fault shapes are available via Fault().
type Payload map[string]interface{}

// Event is a single injected fault or probe during a verification run.
type Event struct {
	ID         string    `json:"id"`
	Type       FaultType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Parameters Payload   `json:"parameters,omitempty"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
}

// Outcome records what happened when an event executed.
type Outcome struct {
	Handled           bool        `json:"handled"`
	DurationMs        float64     `json:"duration_ms"`
	RecoveryMechanism string      `json:"recovery_mechanism,omitempty"`
	Violations        []Violation `json:"violations,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// Violation describes one invariant broken while the fault was active.
type Violation struct {
	Invariant string `json:"invariant"`
	Detail    string `json:"detail,omitempty"`
}

// NewEvent constructs an event with the given identity and fault payload.
func NewEvent(id string, faultType FaultType, at time.Time, params Payload) *Event {
	return &Event{
		ID:         id,
		Type:       faultType,
		Timestamp:  at,
		Parameters: params,
	}
}

// AttachOutcome sets the event's outcome. Attachment is one-shot: a second
// call returns ErrOutcomeAttached and leaves the first outcome in place.
func (e *Event) AttachOutcome(o *Outcome) error {
	if e.Outcome != nil {
		return ErrOutcomeAttached
	}
	e.Outcome = o
	return nil
}

// Clone returns a deep, independent copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Parameters != nil {
		cp.Parameters = clonePayload(e.Parameters)
	}
	if e.Outcome != nil {
		oc := *e.Outcome
		if e.Outcome.Violations != nil {
			oc.Violations = make([]Violation, len(e.Outcome.Violations))
			copy(oc.Violations, e.Outcome.Violations)
		}
		cp.Outcome = &oc
	}
	return &cp
}

func clonePayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Serialize encodes the event as its flat JSON record.
func Serialize(e *Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("chaos: cannot serialize nil event")
	}
	if e.ID == "" {
		return nil, errors.New("chaos: event id is empty")
	}
	if !knownFaultTypes[e.Type] {
		return nil, fmt.Errorf("chaos: unknown fault type %q", e.Type)
	}
	return json.Marshal(e)
}

// Deserialize decodes a flat event record. Unknown fault types and missing
// identity fail fast: they indicate a corrupted artifact, not an expected
// chaos outcome.
func Deserialize(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("chaos: decode event: %w", err)
	}
	if e.ID == "" {
		return nil, errors.New("chaos: event record missing id")
	}
	if !knownFaultTypes[e.Type] {
		return nil, fmt.Errorf("chaos: unknown fault type %q", e.Type)
	}
	return &e, nil
}
