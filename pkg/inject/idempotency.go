package inject

import (
	"context"
	"fmt"
)

// Equals compares two successful attempt values for idempotency purposes.
type Equals[T any] func(a, b T) bool

// IdempotencyReport is the outcome of repeated execution checked for
// result equality. DeviantIndices holds the attempt ordinals whose value
// differed from the first successful attempt.
type IdempotencyReport[T any] struct {
	Results        []Result[T] `json:"results"`
	Checked        bool        `json:"checked"`
	Idempotent     bool        `json:"idempotent"`
	DeviantIndices []int       `json:"deviant_indices,omitempty"`
	Detail         string      `json:"detail,omitempty"`
}

// TestIdempotency runs op Concurrency times (each attempt independent, no
// shared input beyond the closure) and checks that all successful results
// are equal under equals. Like race detection, the comparison only runs
// when at least two attempts succeeded.
func TestIdempotency[T any](ctx context.Context, in *Injector, op Operation[T], equals Equals[T]) *IdempotencyReport[T] {
	results := Execute(ctx, in, op)
	report := &IdempotencyReport[T]{Results: results}

	var reference *Result[T]
	successes := 0
	for i := range results {
		if results[i].Success {
			successes++
			if reference == nil {
				reference = &results[i]
			}
		}
	}
	if successes < 2 {
		return report
	}

	report.Checked = true
	report.Idempotent = true
	for i := range results {
		r := &results[i]
		if !r.Success || r.Index == reference.Index {
			continue
		}
		if !equals(reference.Value, r.Value) {
			report.Idempotent = false
			report.DeviantIndices = append(report.DeviantIndices, r.Index)
		}
	}
	if !report.Idempotent {
		report.Detail = fmt.Sprintf("%d of %d successful attempts deviated from attempt %d",
			len(report.DeviantIndices), successes, reference.Index)
		in.logger.Warn("idempotency violation", "detail", report.Detail)
	}
	return report
}
