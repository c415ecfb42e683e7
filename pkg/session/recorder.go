package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/isl-lang/chaoscore/pkg/chaos"
	"github.com/isl-lang/chaoscore/pkg/contracts"
	"github.com/isl-lang/chaoscore/pkg/merkle"
	"github.com/isl-lang/chaoscore/pkg/rng"
)

// Recorder accumulates a chaos run into a ReplaySession. It is the
// single writer for its session and owns the session's RNG instance
// for the duration of the recording pass.
//
// Recorder methods never fail on malformed input: a crashing recorder
// must not abort the chaos run it is observing. Bad entries degrade to
// logged no-ops.
type Recorder struct {
	mu      sync.Mutex
	session *Session
	rng     *rng.RNG
	pending []string       // event ids since the last scenario close
	index   map[string]int // event id -> position in session.Events
	clock   func() time.Time
	logger  *slog.Logger
}

// NewRecorder creates a recorder for a fresh session seeded with seed.
func NewRecorder(seed uint32) *Recorder {
	r := &Recorder{
		rng:    rng.New(seed),
		index:  make(map[string]int),
		clock:  time.Now,
		logger: slog.Default().With("component", "replay_recorder"),
	}
	now := r.clock()
	r.session = &Session{
		ID:              sessionID(now, seed),
		Seed:            seed,
		CreatedAt:       now,
		Events:          make([]json.RawMessage, 0),
		Timeline:        make([]contracts.TimelineEvent, 0),
		ScenarioResults: make([]ScenarioRecord, 0),
		Metadata:        make(map[string]interface{}),
	}
	return r
}

// WithClock overrides the clock for testing. The session identity is
// re-derived from the injected clock.
func (r *Recorder) WithClock(clock func() time.Time) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = clock
	now := clock()
	r.session.CreatedAt = now
	r.session.ID = sessionID(now, r.session.Seed)
	return r
}

// SessionID returns the derived identity of the session being recorded.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ID
}

// RNG returns the session's random source. The scenario executor draws
// every randomized decision from this instance so a replay with the same
// seed reproduces them exactly.
func (r *Recorder) RNG() *rng.RNG {
	return r.rng
}

// RecordEvent appends the event to the session in execution order and
// tracks its id for the current scenario. Events that cannot be
// serialized are dropped with a warning.
func (r *Recorder) RecordEvent(e *chaos.Event) {
	raw, err := chaos.Serialize(e)
	if err != nil {
		r.logger.Warn("dropping unrecordable event", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.index[e.ID]; dup {
		r.logger.Warn("dropping event with duplicate id", "event_id", e.ID)
		return
	}
	r.index[e.ID] = len(r.session.Events)
	r.session.Events = append(r.session.Events, raw)
	r.pending = append(r.pending, e.ID)
}

// RecordOutcome attaches an outcome to a previously recorded event.
// Unknown event ids and repeated attachment are no-ops, not errors.
func (r *Recorder) RecordOutcome(eventID string, outcome *chaos.Outcome) {
	if outcome == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.index[eventID]
	if !ok {
		r.logger.Debug("outcome for unknown event ignored", "event_id", eventID)
		return
	}
	ev, err := chaos.Deserialize(r.session.Events[pos])
	if err != nil {
		r.logger.Warn("stored event no longer decodes", "event_id", eventID, "error", err)
		return
	}
	if err := ev.AttachOutcome(outcome); err != nil {
		r.logger.Debug("outcome already attached", "event_id", eventID)
		return
	}
	raw, err := chaos.Serialize(ev)
	if err != nil {
		r.logger.Warn("re-serialize after outcome failed", "event_id", eventID, "error", err)
		return
	}
	r.session.Events[pos] = raw
}

// RecordTimeline appends timeline events in caller-supplied order.
func (r *Recorder) RecordTimeline(events []contracts.TimelineEvent) {
	if len(events) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.session.Timeline = append(r.session.Timeline, cloneTimelineEvent(ev))
	}
}

// RecordScenarioResult closes out the current scenario, snapshotting the
// event ids accumulated since the previous call and clearing the
// accumulator for the next scenario.
func (r *Recorder) RecordScenarioResult(name string, passed bool, durationMs float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.pending))
	copy(ids, r.pending)
	r.session.ScenarioResults = append(r.session.ScenarioResults, ScenarioRecord{
		Name:       name,
		Passed:     passed,
		DurationMs: durationMs,
		EventIDs:   ids,
	})
	r.pending = r.pending[:0]
}

// SetMetadata attaches a free-form metadata entry to the session.
func (r *Recorder) SetMetadata(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Metadata[key] = cloneAny(value)
}

// ExportSession returns a deep, independent snapshot of the session.
// Subsequent recorder mutation never affects a previously exported
// snapshot. The snapshot's metadata carries the merkle root over the
// serialized event sequence under MetadataEventsRoot.
func (r *Recorder) ExportSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.session.Clone()
	entries := make([][]byte, len(snapshot.Events))
	for i, raw := range snapshot.Events {
		entries[i] = raw
	}
	if snapshot.Metadata == nil {
		snapshot.Metadata = make(map[string]interface{})
	}
	snapshot.Metadata[MetadataEventsRoot] = merkle.Build(entries).Root
	return snapshot
}

// EventCount returns the number of events recorded so far.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.session.Events)
}
