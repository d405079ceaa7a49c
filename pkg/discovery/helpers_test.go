package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap/zapcore"

	"github.com/cordmesh/cordmesh/pkg/config"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

func testLogger(t *testing.T) *logging.ColoredLogger {
	t.Helper()
	logger, err := logging.NewColoredLogger(zapcore.ErrorLevel, false)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func testConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Enabled:              true,
		IdlePeriod:           30 * time.Second,
		OnFailureIdlePeriod:  60 * time.Second,
		IdleAfterNRounds:     10,
		MaxSyncPeers:         5,
		NumPeersToRequest:    16,
		MaxAcceptCloserPeers: 125,
		NumNeighbours:        8,
	}
}

type fakeRegistry struct {
	addFn        func(rec PeerRecord) (AddResult, error)
	candidatesFn func(n int, exclude []peer.ID) ([]peer.ID, error)
	count        int
}

func (f *fakeRegistry) Add(_ context.Context, rec PeerRecord) (AddResult, error) {
	if f.addFn == nil {
		return AddResult{New: true}, nil
	}
	return f.addFn(rec)
}

func (f *fakeRegistry) SelectSyncCandidates(_ context.Context, n int, exclude []peer.ID) ([]peer.ID, error) {
	if f.candidatesFn == nil {
		return nil, nil
	}
	return f.candidatesFn(n, exclude)
}

func (f *fakeRegistry) Count(context.Context) (int, error) {
	return f.count, nil
}

type fakeConnectivity struct {
	dialFn  func(id peer.ID) error
	waitErr error
	num     int
}

func (f *fakeConnectivity) DialPeer(_ context.Context, id peer.ID) error {
	if f.dialFn == nil {
		return nil
	}
	return f.dialFn(id)
}

func (f *fakeConnectivity) NumConnected() int {
	return f.num
}

func (f *fakeConnectivity) WaitForConnectivity(ctx context.Context) error {
	if f.waitErr != nil {
		return f.waitErr
	}
	return ctx.Err()
}

type fakeSyncer struct {
	syncFn func(from peer.ID, n int) ([]PeerRecord, error)
}

func (f *fakeSyncer) SyncPeers(_ context.Context, from peer.ID, n int) ([]PeerRecord, error) {
	if f.syncFn == nil {
		return nil, nil
	}
	return f.syncFn(from, n)
}

// newTestContext builds a Context over fakes and a mock clock.
func newTestContext(t *testing.T, cfg config.DiscoveryConfig, reg *fakeRegistry, conn *fakeConnectivity, sync *fakeSyncer) (Context, *clock.Mock) {
	t.Helper()
	if reg == nil {
		reg = &fakeRegistry{}
	}
	if conn == nil {
		conn = &fakeConnectivity{num: 1}
	}
	if sync == nil {
		sync = &fakeSyncer{}
	}
	clk := clock.NewMock()
	dctx := NewContext(cfg, reg, conn, sync, peer.ID("self"), clk, testLogger(t))
	return dctx, clk
}

func newTestService(t *testing.T, dctx Context, publisher *Publisher) *Service {
	t.Helper()
	return New(dctx, publisher, testLogger(t))
}
