package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"go.uber.org/zap/zapcore"

	"github.com/cordmesh/cordmesh/pkg/discovery"
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

// newTestManager builds a gossipsub manager on a single in-process host;
// local subscriptions still receive locally published messages.
func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	h, err := libp2p.New(libp2p.ListenAddrStrings("/ip4/127.0.0.1/tcp/0"))
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	t.Cleanup(func() { h.Close() })

	ps, err := pubsub.NewGossipSub(context.Background(), h)
	if err != nil {
		t.Fatalf("failed to create gossipsub: %v", err)
	}

	m := NewManager(ps)
	t.Cleanup(func() { m.Close() })
	return m, h.ID().String()
}

func TestAnnouncerRepublishesPeersAdded(t *testing.T) {
	manager, self := newTestManager(t)

	sub, err := manager.Subscribe(PeersAddedTopic)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Cancel()

	publisher := discovery.NewPublisher(testLogger(t))
	defer publisher.Close()

	announcer := NewAnnouncer(manager, publisher, self, testLogger(t))
	announcer.Start()
	defer announcer.Stop()

	publisher.Publish(discovery.Event{
		Kind: discovery.EventPeersAdded,
		Info: discovery.RoundInfo{NumNewPeers: 3, NumNewNeighbours: 1, NumSucceeded: 2},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("no announcement received: %v", err)
	}

	var got PeersAddedAnnouncement
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("failed to decode announcement: %v", err)
	}
	if got.PeerID != self {
		t.Fatalf("announcement peer_id = %q; want %q", got.PeerID, self)
	}
	if got.NumNewPeers != 3 || got.NumNeighbours != 1 || got.NumSucceeded != 2 {
		t.Fatalf("announcement stats = %+v; want 3/1/2", got)
	}
	if got.Timestamp == 0 {
		t.Fatalf("announcement is missing a timestamp")
	}
}

func TestAnnouncerStopIsIdempotentAndPrompt(t *testing.T) {
	manager, self := newTestManager(t)
	publisher := discovery.NewPublisher(testLogger(t))
	defer publisher.Close()

	announcer := NewAnnouncer(manager, publisher, self, testLogger(t))
	announcer.Start()

	done := make(chan struct{})
	go func() {
		announcer.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return")
	}

	// Stopping a never-started announcer is a no-op.
	NewAnnouncer(manager, publisher, self, testLogger(t)).Stop()
}

func TestManagerPublishWithoutPubSub(t *testing.T) {
	m := &Manager{}
	if err := m.Publish(context.Background(), "t", []byte("x")); err == nil {
		t.Fatalf("publish on an uninitialized manager must fail")
	}
}
