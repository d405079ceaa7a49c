package discovery

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/logging"
)

// EventKind identifies a published discovery event.
type EventKind int

const (
	// EventPeersAdded is published after a round that learned new peers.
	EventPeersAdded EventKind = iota
)

func (k EventKind) String() string {
	switch k {
	case EventPeersAdded:
		return "PeersAdded"
	default:
		return "Unknown"
	}
}

// Event is an externally visible discovery notification.
type Event struct {
	Kind EventKind
	Info RoundInfo
	Time time.Time
}

// Publisher fans discovery events out to an arbitrary number of
// subscribers. Delivery is best-effort: publishing never blocks, a full
// subscriber buffer drops the event, and zero subscribers is not an
// error.
type Publisher struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	logger *logging.ColoredLogger
}

// NewPublisher creates an event publisher.
func NewPublisher(logger *logging.ColoredLogger) *Publisher {
	return &Publisher{
		subs:   make(map[string]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its registration ID
// and receive channel. buffer controls how many undelivered events the
// subscriber may lag behind before events are dropped.
func (p *Publisher) Subscribe(buffer int) (string, <-chan Event) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	id := uuid.NewString()

	p.mu.Lock()
	p.subs[id] = ch
	p.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown IDs
// are ignored.
func (p *Publisher) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ch, ok := p.subs[id]; ok {
		delete(p.subs, id)
		close(ch)
	}
}

// Publish broadcasts an event to all current subscribers without
// blocking. Subscribers that cannot keep up miss events.
func (p *Publisher) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			if p.logger != nil {
				p.logger.ComponentDebug(logging.ComponentDiscovery,
					"Dropping discovery event for slow subscriber",
					zap.String("subscriber", id),
					zap.Stringer("kind", ev.Kind))
			}
		}
	}
}

// Close unsubscribes everyone and closes their channels.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
