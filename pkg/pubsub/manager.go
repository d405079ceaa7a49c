package pubsub

import (
	"context"
	"fmt"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
)

// Manager handles pub/sub topic lifecycle and publishing
type Manager struct {
	pubsub *pubsub.PubSub
	topics map[string]*pubsub.Topic
	mu     sync.Mutex
}

// NewManager creates a new pubsub manager
func NewManager(ps *pubsub.PubSub) *Manager {
	return &Manager{
		pubsub: ps,
		topics: make(map[string]*pubsub.Topic),
	}
}

// Publish publishes a message to a topic
func (m *Manager) Publish(ctx context.Context, topic string, data []byte) error {
	if m.pubsub == nil {
		return fmt.Errorf("pubsub not initialized")
	}

	t, err := m.getOrCreateTopic(topic)
	if err != nil {
		return fmt.Errorf("failed to get topic for publishing: %w", err)
	}

	if err := t.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Subscribe joins a topic and returns its subscription
func (m *Manager) Subscribe(topic string) (*pubsub.Subscription, error) {
	t, err := m.getOrCreateTopic(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic for subscribing: %w", err)
	}
	return t.Subscribe()
}

// Close leaves all joined topics
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, t := range m.topics {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.topics, name)
	}
	return firstErr
}

func (m *Manager) getOrCreateTopic(name string) (*pubsub.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.topics[name]; ok {
		return t, nil
	}

	t, err := m.pubsub.Join(name)
	if err != nil {
		return nil, err
	}
	m.topics[name] = t
	return t, nil
}
