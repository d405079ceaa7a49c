package discovery

import (
	"context"
	"time"
)

// waiting sleeps for a fixed duration and then reports readiness. The
// sleep is cancellable; cancellation yields a shutdown event without
// waiting out the timer.
type waiting struct {
	dctx     Context
	duration time.Duration
}

func newWaiting(dctx Context, d time.Duration) *waiting {
	return &waiting{dctx: dctx, duration: d}
}

func (s *waiting) nextEvent(ctx context.Context) stateEvent {
	t := s.dctx.Clock().Timer(s.duration)
	defer t.Stop()

	select {
	case <-t.C:
		return readyEvent()
	case <-ctx.Done():
		return shutdownEvent()
	}
}
