package discovery

import (
	"sync"
	"testing"
)

func TestRoundCounterReturnsPreviousValue(t *testing.T) {
	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)

	if got := dctx.IncrementRoundCount(); got != 0 {
		t.Fatalf("first increment returned %d; want previous value 0", got)
	}
	if got := dctx.IncrementRoundCount(); got != 1 {
		t.Fatalf("second increment returned %d; want previous value 1", got)
	}
	if got := dctx.RoundCount(); got != 2 {
		t.Fatalf("round count = %d; want 2", got)
	}

	dctx.ResetRoundCount()
	if got := dctx.RoundCount(); got != 0 {
		t.Fatalf("round count after reset = %d; want 0", got)
	}
}

func TestRoundCounterSharedAcrossCopies(t *testing.T) {
	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)

	// Handlers receive the context by value; the counter must still be
	// shared between all copies.
	copy1 := dctx
	copy2 := dctx

	copy1.IncrementRoundCount()
	copy2.IncrementRoundCount()

	if got := dctx.RoundCount(); got != 2 {
		t.Fatalf("round count = %d; want 2 across copies", got)
	}
}

func TestRoundCounterConcurrentIncrements(t *testing.T) {
	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := dctx
			for j := 0; j < perWorker; j++ {
				c.IncrementRoundCount()
			}
		}()
	}
	wg.Wait()

	if got := dctx.RoundCount(); got != workers*perWorker {
		t.Fatalf("round count = %d; want %d", got, workers*perWorker)
	}
}

func TestNewContextDefaultsClock(t *testing.T) {
	dctx := NewContext(testConfig(), &fakeRegistry{}, &fakeConnectivity{}, &fakeSyncer{}, "self", nil, testLogger(t))
	if dctx.Clock() == nil {
		t.Fatalf("nil clock must default to the wall clock")
	}
}
