package discovery

import (
	"context"
	"testing"
	"time"
)

func TestWaitingReportsReadyWhenTimerFires(t *testing.T) {
	dctx, clk := newTestContext(t, testConfig(), nil, nil, nil)

	got := make(chan stateEvent, 1)
	go func() {
		got <- newWaiting(dctx, 30*time.Second).nextEvent(context.Background())
	}()

	// Let the handler arm its timer before moving the mock clock.
	time.Sleep(50 * time.Millisecond)
	clk.Add(30 * time.Second)

	select {
	case ev := <-got:
		if ev.kind != eventReady {
			t.Fatalf("event = %s; want Ready", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiting handler did not wake up after the timer fired")
	}
}

func TestWaitingDoesNotWakeEarly(t *testing.T) {
	dctx, clk := newTestContext(t, testConfig(), nil, nil, nil)

	got := make(chan stateEvent, 1)
	go func() {
		got <- newWaiting(dctx, 30*time.Second).nextEvent(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	clk.Add(29 * time.Second)

	select {
	case ev := <-got:
		t.Fatalf("handler woke before the timer elapsed: %s", ev)
	case <-time.After(100 * time.Millisecond):
	}

	clk.Add(time.Second)
	select {
	case ev := <-got:
		if ev.kind != eventReady {
			t.Fatalf("event = %s; want Ready", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiting handler did not wake up")
	}
}

func TestWaitingCancellationBeatsTimer(t *testing.T) {
	// Cancellation mid-sleep must yield shutdown promptly, without
	// waiting out the timer.
	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan stateEvent, 1)
	go func() {
		got <- newWaiting(dctx, time.Hour).nextEvent(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case ev := <-got:
		if ev.kind != eventShutdown {
			t.Fatalf("event = %s; want Shutdown", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiting handler ignored cancellation")
	}
}
