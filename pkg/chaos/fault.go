package chaos

// Fault is the tagged-union view over an event's parameter payload.
// Core logic switches exhaustively on the concrete variants; payloads that
// match no known shape surface as OpaqueFault so unknown fields still
// round-trip untouched.
type Fault interface {
	FaultType() FaultType
}

// LatencyFault delays the behavior under test.
type LatencyFault struct {
	DelayMs  float64
	JitterMs float64
}

func (LatencyFault) FaultType() FaultType { return FaultLatency }

// ErrorFault injects a synthetic failure.
type ErrorFault struct {
	Code    string
	Message string
	Rate    float64
}

func (ErrorFault) FaultType() FaultType { return FaultError }

// PartitionFault isolates a set of targets from the rest of the system.
type PartitionFault struct {
	Targets    []string
	DurationMs float64
}

func (PartitionFault) FaultType() FaultType { return FaultNetworkPartition }

// CrashFault kills a process, optionally restarting it after a delay.
type CrashFault struct {
	Target         string
	RestartAfterMs float64
}

func (CrashFault) FaultType() FaultType { return FaultProcessCrash }

// ClockSkewFault shifts the observed clock of a target.
type ClockSkewFault struct {
	Target   string
	OffsetMs float64
}

func (ClockSkewFault) FaultType() FaultType { return FaultClockSkew }

// ResourceFault constrains a named resource (memory, fd, disk, cpu).
type ResourceFault struct {
	Resource string
	Limit    float64
}

func (ResourceFault) FaultType() FaultType { return FaultResourceExhaustion }

// OpaqueFault carries parameters the core has no typed shape for. The raw
// payload is preserved verbatim so extension faults survive a round trip.
type OpaqueFault struct {
	Type   FaultType
	Params Payload
}

func (f OpaqueFault) FaultType() FaultType { return f.Type }

// Fault decodes the event's parameter payload into its typed variant.
// Events whose payload does not carry the fields of their declared type
// degrade to OpaqueFault rather than erroring; parameter bags are
// best-effort data from the executor, not trusted structure.
func (e *Event) Fault() Fault {
	p := e.Parameters
	switch e.Type {
	case FaultLatency:
		if d, ok := num(p, "delay_ms"); ok {
			return LatencyFault{DelayMs: d, JitterMs: numOr(p, "jitter_ms", 0)}
		}
	case FaultError:
		if code, ok := str(p, "code"); ok {
			return ErrorFault{Code: code, Message: strOr(p, "message", ""), Rate: numOr(p, "rate", 1)}
		}
	case FaultNetworkPartition:
		if targets, ok := strs(p, "targets"); ok {
			return PartitionFault{Targets: targets, DurationMs: numOr(p, "duration_ms", 0)}
		}
	case FaultProcessCrash:
		if target, ok := str(p, "target"); ok {
			return CrashFault{Target: target, RestartAfterMs: numOr(p, "restart_after_ms", 0)}
		}
	case FaultClockSkew:
		if offset, ok := num(p, "offset_ms"); ok {
			return ClockSkewFault{Target: strOr(p, "target", ""), OffsetMs: offset}
		}
	case FaultResourceExhaustion:
		if resource, ok := str(p, "resource"); ok {
			return ResourceFault{Resource: resource, Limit: numOr(p, "limit", 0)}
		}
	}
	return OpaqueFault{Type: e.Type, Params: p}
}

func num(p Payload, key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func numOr(p Payload, key string, def float64) float64 {
	if v, ok := num(p, key); ok {
		return v
	}
	return def
}

func str(p Payload, key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[key].(string)
	return v, ok
}

func strOr(p Payload, key, def string) string {
	if v, ok := str(p, key); ok {
		return v
	}
	return def
}

func strs(p Payload, key string) ([]string, bool) {
	if p == nil {
		return nil, false
	}
	switch v := p[key].(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
