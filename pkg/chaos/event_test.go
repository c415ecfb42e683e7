package chaos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
}

func TestSerialize_RoundTrip(t *testing.T) {
	e := NewEvent("evt-1", FaultLatency, fixedTime(), Payload{
		"delay_ms":  250.0,
		"jitter_ms": 50.0,
	})

	data, err := Serialize(e)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, e, back)

	again, err := Serialize(back)
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(again))
}

func TestSerialize_RoundTripWithOutcome(t *testing.T) {
	e := NewEvent("evt-2", FaultError, fixedTime(), Payload{"code": "ETIMEDOUT"})
	require.NoError(t, e.AttachOutcome(&Outcome{
		Handled:           true,
		DurationMs:        12.5,
		RecoveryMechanism: "retry",
		Violations: []Violation{
			{Invariant: "orders_balance", Detail: "delta=3"},
		},
	}))

	data, err := Serialize(e)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, e, back)
}

func TestSerialize_RoundTripOpaqueParams(t *testing.T) {
	e := NewEvent("evt-3", FaultCustom, fixedTime(), Payload{
		"vendor":  "acme",
		"nested":  map[string]interface{}{"depth": 2.0},
		"targets": []interface{}{"a", "b"},
	})
	data, err := Serialize(e)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, e.Parameters, back.Parameters)
}

func TestDeserialize_UnknownFaultType(t *testing.T) {
	_, err := Deserialize([]byte(`{"id":"x","type":"quantum_flux","timestamp":"2026-03-01T10:30:00Z"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown fault type")
}

func TestDeserialize_MissingID(t *testing.T) {
	_, err := Deserialize([]byte(`{"type":"latency","timestamp":"2026-03-01T10:30:00Z"}`))
	require.Error(t, err)
}

func TestDeserialize_Malformed(t *testing.T) {
	_, err := Deserialize([]byte(`{not json`))
	require.Error(t, err)
}

func TestAttachOutcome_OneShot(t *testing.T) {
	e := NewEvent("evt-4", FaultProbe, fixedTime(), nil)
	first := &Outcome{Handled: true}
	require.NoError(t, e.AttachOutcome(first))

	err := e.AttachOutcome(&Outcome{Handled: false})
	require.ErrorIs(t, err, ErrOutcomeAttached)
	require.Same(t, first, e.Outcome)
}

func TestClone_Independent(t *testing.T) {
	e := NewEvent("evt-5", FaultNetworkPartition, fixedTime(), Payload{
		"targets": []interface{}{"node-a", "node-b"},
	})
	require.NoError(t, e.AttachOutcome(&Outcome{Handled: false, Violations: []Violation{{Invariant: "quorum"}}}))

	cp := e.Clone()
	cp.Parameters["targets"].([]interface{})[0] = "mutated"
	cp.Outcome.Violations[0].Invariant = "mutated"

	require.Equal(t, "node-a", e.Parameters["targets"].([]interface{})[0])
	require.Equal(t, "quorum", e.Outcome.Violations[0].Invariant)
}

func TestFault_TypedVariants(t *testing.T) {
	tests := []struct {
		name  string
		event *Event
		want  Fault
	}{
		{
			name:  "latency",
			event: NewEvent("e", FaultLatency, fixedTime(), Payload{"delay_ms": 100.0, "jitter_ms": 10.0}),
			want:  LatencyFault{DelayMs: 100, JitterMs: 10},
		},
		{
			name:  "error",
			event: NewEvent("e", FaultError, fixedTime(), Payload{"code": "E503", "message": "unavailable", "rate": 0.5}),
			want:  ErrorFault{Code: "E503", Message: "unavailable", Rate: 0.5},
		},
		{
			name:  "partition",
			event: NewEvent("e", FaultNetworkPartition, fixedTime(), Payload{"targets": []interface{}{"a"}, "duration_ms": 500.0}),
			want:  PartitionFault{Targets: []string{"a"}, DurationMs: 500},
		},
		{
			name:  "crash",
			event: NewEvent("e", FaultProcessCrash, fixedTime(), Payload{"target": "worker-1"}),
			want:  CrashFault{Target: "worker-1"},
		},
		{
			name:  "clock skew",
			event: NewEvent("e", FaultClockSkew, fixedTime(), Payload{"offset_ms": -3000.0, "target": "node-2"}),
			want:  ClockSkewFault{Target: "node-2", OffsetMs: -3000},
		},
		{
			name:  "resource",
			event: NewEvent("e", FaultResourceExhaustion, fixedTime(), Payload{"resource": "memory", "limit": 256.0}),
			want:  ResourceFault{Resource: "memory", Limit: 256},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.event.Fault())
		})
	}
}

func TestFault_OpaqueFallback(t *testing.T) {
	// Declared latency but no delay field: degrade to opaque, keep payload.
	e := NewEvent("e", FaultLatency, fixedTime(), Payload{"weird": true})
	f, ok := e.Fault().(OpaqueFault)
	require.True(t, ok)
	require.Equal(t, FaultLatency, f.FaultType())
	require.Equal(t, Payload{"weird": true}, f.Params)

	// Custom faults are always opaque.
	c := NewEvent("e", FaultCustom, fixedTime(), Payload{"vendor": "acme"})
	_, ok = c.Fault().(OpaqueFault)
	require.True(t, ok)
}
