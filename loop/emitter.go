package loop

import "context"

// emitter rate-limits re-emission of an accumulating value to the output
// boundary. It counts characters added since the last flush and, once the
// count crosses the configured threshold, pushes the entire accumulated value
// (not the delta) through flush and starts counting again. Emitting the full
// value trades wire efficiency for idempotence: a consumer that keeps only the
// last-seen payload is always complete.
//
// The text and reasoning channels each get their own instance with their own
// threshold; reasoning flushes at a finer granularity.
type emitter struct {
	threshold int
	pending   int
	flush     func(ctx context.Context, full string) error
}

func newEmitter(threshold int, flush func(ctx context.Context, full string) error) *emitter {
	return &emitter{threshold: threshold, flush: flush}
}

// emitIfNeeded adds newChars to the pending count and flushes the full
// accumulated value once the count reaches the threshold.
func (e *emitter) emitIfNeeded(ctx context.Context, full string, newChars int) error {
	e.pending += newChars
	if e.pending < e.threshold {
		return nil
	}
	e.pending = 0
	return e.flush(ctx, full)
}

// emitFinal flushes any non-zero remainder exactly once at end of stream. A
// zero pending count means the last threshold flush already carried the
// complete value and nothing is emitted.
func (e *emitter) emitFinal(ctx context.Context, full string) error {
	if e.pending == 0 {
		return nil
	}
	e.pending = 0
	return e.flush(ctx, full)
}

// reset zeroes the pending count without emitting. Used at iteration start so
// carryover never double-flushes.
func (e *emitter) reset() {
	e.pending = 0
}
