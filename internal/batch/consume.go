package batch

import (
	"context"
	"time"

	"github.com/idelchi/gocryptor/internal/engine"
)

// DefaultInterval is the pause between polls of an empty queue.
const DefaultInterval = 200 * time.Millisecond

// Consume drains h until its end item, calling fn for each outcome on the calling goroutine.
// While items keep arriving the queue is re-checked at once, otherwise Consume sleeps
// for interval between polls. It returns the tally of the consumed outcomes, which is
// partial when ctx is done first.
func Consume(ctx context.Context, h *Handle, interval time.Duration, fn func(engine.Outcome)) Tally {
	if interval <= 0 {
		interval = DefaultInterval
	}

	var tally Tally

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		got := 0

		done := h.Drain(func(item Item) {
			got++

			if item.Kind != KindOutcome {
				return
			}

			tally.Add(item.Outcome.Status)

			if fn != nil {
				fn(item.Outcome)
			}
		})

		if done {
			return tally
		}

		if got > 0 {
			continue
		}

		timer.Reset(interval)

		select {
		case <-ctx.Done():
			return tally
		case <-timer.C:
		}
	}
}
