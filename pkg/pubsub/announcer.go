package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/discovery"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// PeersAddedTopic carries summaries of discovery rounds that learned new
// peers.
const PeersAddedTopic = "/cordmesh/discovery/peers-added/v1"

// PeersAddedAnnouncement is the gossip form of a peers-added event.
type PeersAddedAnnouncement struct {
	PeerID        string `json:"peer_id"`
	NumNewPeers   int    `json:"num_new_peers"`
	NumNeighbours int    `json:"num_new_neighbours"`
	NumSucceeded  int    `json:"num_succeeded"`
	Timestamp     int64  `json:"timestamp"`
}

// Announcer bridges the discovery event bus onto a gossip topic so other
// nodes can observe this node's discovery activity.
type Announcer struct {
	manager   *Manager
	publisher *discovery.Publisher
	self      string
	logger    *logging.ColoredLogger

	subID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAnnouncer creates an announcer. self is this node's peer ID string.
func NewAnnouncer(manager *Manager, publisher *discovery.Publisher, self string, logger *logging.ColoredLogger) *Announcer {
	return &Announcer{
		manager:   manager,
		publisher: publisher,
		self:      self,
		logger:    logger,
	}
}

// Start subscribes to the discovery event bus and begins republishing.
func (a *Announcer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	id, events := a.publisher.Subscribe(16)
	a.subID = id

	go func() {
		defer close(a.done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				a.announce(ctx, ev)
			}
		}
	}()
}

// Stop unsubscribes and waits for the republishing loop to exit.
func (a *Announcer) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	a.publisher.Unsubscribe(a.subID)
	<-a.done
}

func (a *Announcer) announce(ctx context.Context, ev discovery.Event) {
	if ev.Kind != discovery.EventPeersAdded {
		return
	}

	announcement := PeersAddedAnnouncement{
		PeerID:        a.self,
		NumNewPeers:   ev.Info.NumNewPeers,
		NumNeighbours: ev.Info.NumNewNeighbours,
		NumSucceeded:  ev.Info.NumSucceeded,
		Timestamp:     time.Now().Unix(),
	}

	data, err := json.Marshal(announcement)
	if err != nil {
		a.logger.ComponentDebug(logging.ComponentPubSub, "Failed to marshal announcement", zap.Error(err))
		return
	}

	if err := a.manager.Publish(ctx, PeersAddedTopic, data); err != nil {
		// Best-effort: gossip failures never disturb discovery.
		a.logger.ComponentDebug(logging.ComponentPubSub, "Failed to publish announcement", zap.Error(err))
		return
	}

	a.logger.ComponentDebug(logging.ComponentPubSub,
		"Announced discovery results",
		zap.Int("new_peers", ev.Info.NumNewPeers))
}
