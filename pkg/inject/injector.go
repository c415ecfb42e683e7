// Package inject runs a caller-supplied operation N times concurrently to
// expose races and non-idempotent behavior in the system under test.
//
// This is the one place in the verification core where genuine parallelism
// is the point: recording and replay are single-writer, but injection
// batches launch real goroutines. Attempt indices are fixed at launch time
// and stable in the output regardless of completion order, and no attempt
// may ever vanish from the result set — a batch of N attempts yields
// exactly N results even when the batch deadline wins.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/isl-lang/chaoscore/pkg/rng"
)

// ErrDidNotComplete is the synthetic error message recorded for attempts
// still pending when the batch deadline fires.
const ErrDidNotComplete = "Request did not complete"

// Config tunes an injection batch.
type Config struct {
	// Concurrency is the number of attempts per batch.
	Concurrency int
	// Staggered delays each launch by StaggerDelay instead of starting all
	// attempts at once. Simultaneous start is the mode that exercises races;
	// staggered starts test ordering-dependent behavior deterministically.
	Staggered    bool
	StaggerDelay time.Duration
	// Timeout is the batch-wide deadline. Zero fires immediately; a
	// negative value disables the deadline entirely.
	Timeout time.Duration
}

// DefaultConfig returns the stock batch shape: five simultaneous attempts
// under a thirty second deadline.
func DefaultConfig() Config {
	return Config{Concurrency: 5, Timeout: 30 * time.Second}
}

// Operation is one attempt against the system under test. attempt is the
// 0-based ordinal of this invocation within the batch.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// SeededOperation is an attempt that also receives its own derived random
// source. Each attempt gets an independent fork so parallel attempts never
// share mutable RNG state.
type SeededOperation[T any] func(ctx context.Context, attempt int, r *rng.RNG) (T, error)

// Result is the per-attempt outcome of a concurrent execution. Start and
// End are relative to batch start.
type Result[T any] struct {
	Index    int           `json:"index"`
	Success  bool          `json:"success"`
	Value    T             `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Start    time.Duration `json:"start"`
	End      time.Duration `json:"end"`
	Duration time.Duration `json:"duration"`
}

// BatchObserver receives completed batch telemetry. Implemented by
// observability.Provider; a nil observer is a no-op.
type BatchObserver interface {
	ObserveBatch(ctx context.Context, kind string, attempts, failures int, elapsed time.Duration)
}

// Injector executes concurrent injection batches.
type Injector struct {
	cfg      Config
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
	logger   *slog.Logger
	observer BatchObserver
}

// New creates an injector. A non-positive concurrency is raised to one.
func New(cfg Config) *Injector {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Injector{
		cfg:    cfg,
		clock:  time.Now,
		sleep:  sleepFor,
		logger: slog.Default().With("component", "concurrent_injector"),
	}
}

// WithClock overrides the clock for testing.
func (in *Injector) WithClock(clock func() time.Time) *Injector {
	in.clock = clock
	return in
}

// WithSleep overrides the stagger delay primitive for testing.
func (in *Injector) WithSleep(sleep func(ctx context.Context, d time.Duration)) *Injector {
	in.sleep = sleep
	return in
}

// WithObserver attaches batch telemetry.
func (in *Injector) WithObserver(o BatchObserver) *Injector {
	in.observer = o
	return in
}

// Config returns the injector's batch configuration.
func (in *Injector) Config() Config { return in.cfg }

func sleepFor(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

type attemptStart struct {
	index int
	at    time.Duration
}

// Execute runs op Concurrency times and returns exactly Concurrency
// results, one per index, regardless of individual success, failure, or
// deadline expiry. Per-attempt errors and panics are captured in the
// result, never propagated. A nil operation is a structural bug and
// panics before any attempt starts.
//
// Deadline expiry does not cancel in-flight attempts; the injector stops
// waiting for them and synthesizes their results.
func Execute[T any](ctx context.Context, in *Injector, op Operation[T]) []Result[T] {
	if op == nil {
		panic("inject: nil operation")
	}
	n := in.cfg.Concurrency
	batchStart := in.clock()

	resCh := make(chan Result[T], n)
	startCh := make(chan attemptStart, n)

	go func() {
		for i := 0; i < n; i++ {
			if in.cfg.Staggered && i > 0 && in.cfg.StaggerDelay > 0 {
				in.sleep(ctx, in.cfg.StaggerDelay)
			}
			if ctx.Err() != nil {
				return
			}
			start := in.clock().Sub(batchStart)
			startCh <- attemptStart{index: i, at: start}
			go func(index int, start time.Duration) {
				value, err := runAttempt(ctx, op, index)
				end := in.clock().Sub(batchStart)
				res := Result[T]{
					Index:    index,
					Start:    start,
					End:      end,
					Duration: end - start,
				}
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Success = true
					res.Value = value
				}
				resCh <- res
			}(i, start)
		}
	}()

	results := make([]Result[T], n)
	settled := make([]bool, n)
	starts := make([]time.Duration, n)
	started := make([]bool, n)

	var deadline <-chan time.Time
	if in.cfg.Timeout >= 0 {
		timer := time.NewTimer(in.cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	count := 0
	for count < n {
		select {
		case s := <-startCh:
			starts[s.index] = s.at
			started[s.index] = true
		case r := <-resCh:
			if !settled[r.Index] {
				results[r.Index] = r
				settled[r.Index] = true
				count++
			}
		case <-deadline:
			count = synthesizeUnsettled(in, results, settled, starts, started, batchStart, count)
		case <-ctx.Done():
			count = synthesizeUnsettled(in, results, settled, starts, started, batchStart, count)
		}
	}

	elapsed := in.clock().Sub(batchStart)
	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
		}
	}
	if in.observer != nil {
		in.observer.ObserveBatch(ctx, "execute", n, failures, elapsed)
	}
	in.logger.Debug("injection batch settled",
		"attempts", n, "failures", failures, "elapsed_ms", elapsed.Milliseconds())
	return results
}

// synthesizeUnsettled records every pending attempt as a failure so the
// result set stays complete when the deadline (or the caller's context)
// wins the race against the attempt batch.
func synthesizeUnsettled[T any](in *Injector, results []Result[T], settled []bool, starts []time.Duration, started []bool, batchStart time.Time, count int) int {
	now := in.clock().Sub(batchStart)
	for i := range results {
		if settled[i] {
			continue
		}
		res := Result[T]{Index: i, Error: ErrDidNotComplete, Start: now, End: now}
		if started[i] {
			res.Start = starts[i]
			res.Duration = now - starts[i]
		}
		results[i] = res
		settled[i] = true
		count++
	}
	return count
}

func runAttempt[T any](ctx context.Context, op Operation[T], attempt int) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attempt panicked: %v", r)
		}
	}()
	return op(ctx, attempt)
}

// ExecuteSeeded runs a seeded operation, forking one independent generator
// per attempt from base so randomized attempt behavior stays deterministic
// under true parallelism.
func ExecuteSeeded[T any](ctx context.Context, in *Injector, base *rng.RNG, op SeededOperation[T]) []Result[T] {
	if op == nil {
		panic("inject: nil operation")
	}
	return Execute(ctx, in, func(ctx context.Context, attempt int) (T, error) {
		return op(ctx, attempt, base.Fork(uint32(attempt)))
	})
}
