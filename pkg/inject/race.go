package inject

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/isl-lang/chaoscore/pkg/contracts"
)

// ConsistencyCheck inspects the values of all successful attempts and
// reports whether they are mutually consistent, with a human-readable
// detail when they are not.
type ConsistencyCheck[T any] func(values []T) (consistent bool, detail string)

// RaceReport is the outcome of a race-detection batch.
//
// Detection is heuristic and post-hoc: the injector cannot prove the
// absence of a race, and it cannot tell a real race apart from an
// operation that is non-deterministic by design. A detected inconsistency
// is best-effort evidence, nothing stronger.
type RaceReport[T any] struct {
	Results      []Result[T]               `json:"results"`
	Checked      bool                      `json:"checked"`
	RaceDetected bool                      `json:"race_detected"`
	Detail       string                    `json:"detail,omitempty"`
	Timeline     []contracts.TimelineEvent `json:"timeline"`
}

// ExecuteAndDetectRace runs a batch and applies check over the successful
// attempt values. The consistency check only runs when at least two
// attempts succeeded; fewer successes leave Checked false.
func ExecuteAndDetectRace[T any](ctx context.Context, in *Injector, op Operation[T], check ConsistencyCheck[T]) *RaceReport[T] {
	results := Execute(ctx, in, op)
	report := &RaceReport[T]{Results: results}

	values := successValues(results)
	if len(values) < 2 {
		report.Timeline = append(report.Timeline, in.timelineEvent("race_check_skipped",
			map[string]interface{}{"successes": len(values), "concurrency": in.cfg.Concurrency}))
		return report
	}

	report.Checked = true
	consistent, detail := check(values)
	if consistent {
		report.Timeline = append(report.Timeline, in.timelineEvent("race_check_passed",
			map[string]interface{}{"successes": len(values), "concurrency": in.cfg.Concurrency}))
		return report
	}

	report.RaceDetected = true
	if detail == "" {
		detail = fmt.Sprintf("inconsistent results across %d successful attempts", len(values))
	}
	report.Detail = detail
	report.Timeline = append(report.Timeline, in.timelineEvent("race_detected",
		map[string]interface{}{
			"detail":      detail,
			"successes":   len(values),
			"concurrency": in.cfg.Concurrency,
		}))
	in.logger.Warn("race detected", "detail", detail, "successes", len(values))
	return report
}

func (in *Injector) timelineEvent(eventType string, data map[string]interface{}) contracts.TimelineEvent {
	return contracts.TimelineEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: in.clock(),
		Data:      data,
	}
}

func successValues[T any](results []Result[T]) []T {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.Success {
			values = append(values, r.Value)
		}
	}
	return values
}
