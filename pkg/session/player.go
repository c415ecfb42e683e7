package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/isl-lang/chaoscore/pkg/chaos"
	"github.com/isl-lang/chaoscore/pkg/rng"
)

// State is the lifecycle position of a Player.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StatePlaying    State = "PLAYING"
	StateExhausted  State = "EXHAUSTED"
)

// Executor re-executes a single chaos event during replay. It receives the
// session's RNG so executor-side randomized decisions reproduce exactly.
type Executor func(ctx context.Context, event *chaos.Event, r *rng.RNG) (*chaos.Outcome, error)

// Options tunes a replay pass.
type Options struct {
	// Speed scales original inter-event gaps: 1 reproduces the recorded
	// pacing, 0.5 halves every gap, 0 runs at full throughput with no
	// artificial delay.
	Speed float64
	// DryRun walks the event sequence without invoking the executor.
	DryRun bool
}

// Difference records one field whose replayed value diverged from the
// recorded one. Divergence is an expected, first-class outcome of chaos
// testing, never an error.
type Difference struct {
	EventID  string      `json:"event_id"`
	Field    string      `json:"field"`
	Original interface{} `json:"original"`
	Replayed interface{} `json:"replayed"`
}

// Report summarizes one replay pass over a session.
type Report struct {
	SessionID      string       `json:"session_id"`
	Seed           uint32       `json:"seed"`
	Matched        bool         `json:"matched"`
	Differences    []Difference `json:"differences"`
	EventsReplayed int          `json:"events_replayed"`
	DryRun         bool         `json:"dry_run,omitempty"`
	DurationMs     float64      `json:"duration_ms"`
}

// Player walks an imported session's events in original order and diffs
// observed outcomes against recorded ones. The session is treated as
// read-only; every delivered event is an independent copy.
type Player struct {
	session *Session
	events  []*chaos.Event
	pos     int
	state   State
	rng     *rng.RNG
	clock   func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
}

// NewPlayer prepares a player for the session. All stored events are
// decoded up front; a record that no longer decodes fails construction,
// since it indicates a corrupted artifact.
func NewPlayer(s *Session) (*Player, error) {
	events := make([]*chaos.Event, len(s.Events))
	for i, raw := range s.Events {
		ev, err := chaos.Deserialize(raw)
		if err != nil {
			return nil, fmt.Errorf("session: event %d is corrupt: %w", i, err)
		}
		events[i] = ev
	}
	return &Player{
		session: s,
		events:  events,
		state:   StateNotStarted,
		rng:     rng.New(s.Seed),
		clock:   time.Now,
		sleep:   sleepFor,
		logger:  slog.Default().With("component", "replay_player", "session_id", s.ID),
	}, nil
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithClock overrides the clock for testing.
func (p *Player) WithClock(clock func() time.Time) *Player {
	p.clock = clock
	return p
}

// WithSleep overrides the delay primitive so speed-scaled replays are
// testable without real waits.
func (p *Player) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Player {
	p.sleep = sleep
	return p
}

// State returns the player's lifecycle position.
func (p *Player) State() State { return p.state }

// RNG returns the replay RNG, reconstructed from the session's stored seed.
func (p *Player) RNG() *rng.RNG { return p.rng }

// TotalEvents returns the number of events in the session.
func (p *Player) TotalEvents() int { return len(p.events) }

// HasMore reports whether events remain to be played.
func (p *Player) HasMore() bool { return p.pos < len(p.events) }

// Progress returns the fraction of events consumed, in [0, 1].
// An empty session reports 1.
func (p *Player) Progress() float64 {
	if len(p.events) == 0 {
		return 1
	}
	return float64(p.pos) / float64(len(p.events))
}

// NextEvent advances and returns a copy of the next event, or nil, false
// when the sequence is exhausted.
func (p *Player) NextEvent() (*chaos.Event, bool) {
	if p.pos >= len(p.events) {
		p.state = StateExhausted
		return nil, false
	}
	ev := p.events[p.pos].Clone()
	p.pos++
	if p.pos >= len(p.events) {
		p.state = StateExhausted
	} else {
		p.state = StatePlaying
	}
	return ev, true
}

// PeekEvent returns a copy of the next event without advancing.
func (p *Player) PeekEvent() (*chaos.Event, bool) {
	if p.pos >= len(p.events) {
		return nil, false
	}
	return p.events[p.pos].Clone(), true
}

// Reset rewinds the player to NotStarted, re-seeding the RNG from the
// session's stored seed.
func (p *Player) Reset() {
	p.pos = 0
	p.state = StateNotStarted
	p.rng.Reset()
}

// Replay resets the player and re-executes every event in original order,
// diffing observed outcomes against recorded ones. The replay is not
// required to match: Matched is a report field, never an error. The only
// error returned is context cancellation mid-pass.
func (p *Player) Replay(ctx context.Context, executor Executor, opts Options) (*Report, error) {
	p.Reset()
	start := p.clock()
	report := &Report{
		SessionID:   p.session.ID,
		Seed:        p.session.Seed,
		Differences: make([]Difference, 0),
		DryRun:      opts.DryRun,
	}

	var prevTimestamp time.Time
	for i := range p.events {
		if err := ctx.Err(); err != nil {
			report.Matched = len(report.Differences) == 0
			report.DurationMs = float64(p.clock().Sub(start)) / float64(time.Millisecond)
			return report, err
		}

		original := p.events[i]
		if opts.Speed > 0 && i > 0 {
			gap := original.Timestamp.Sub(prevTimestamp)
			if gap > 0 {
				scaled := time.Duration(float64(gap) * opts.Speed)
				if err := p.sleep(ctx, scaled); err != nil {
					report.Matched = len(report.Differences) == 0
					report.DurationMs = float64(p.clock().Sub(start)) / float64(time.Millisecond)
					return report, err
				}
			}
		}
		prevTimestamp = original.Timestamp

		delivered, _ := p.NextEvent()
		report.EventsReplayed++
		if opts.DryRun {
			continue
		}

		replayed, err := executor(ctx, delivered, p.rng)
		if err != nil {
			// An executor failure is an observed outcome, not a replay error.
			replayed = &chaos.Outcome{Handled: false, Error: err.Error()}
		}
		p.diffOutcome(report, original, replayed)
	}

	report.Matched = len(report.Differences) == 0
	report.DurationMs = float64(p.clock().Sub(start)) / float64(time.Millisecond)

	p.logger.Debug("replay pass complete",
		"events", report.EventsReplayed,
		"matched", report.Matched,
		"differences", len(report.Differences),
	)
	return report, nil
}

// diffOutcome compares the selected outcome fields of one event. Only
// events that recorded an outcome participate; handled is the field that
// defines behavioral equivalence between runs.
func (p *Player) diffOutcome(report *Report, original *chaos.Event, replayed *chaos.Outcome) {
	if original.Outcome == nil {
		return
	}
	replayedHandled := false
	if replayed != nil {
		replayedHandled = replayed.Handled
	}
	if original.Outcome.Handled != replayedHandled {
		report.Differences = append(report.Differences, Difference{
			EventID:  original.ID,
			Field:    "outcome.handled",
			Original: original.Outcome.Handled,
			Replayed: replayedHandled,
		})
	}
}
