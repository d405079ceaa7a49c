package discovery

import (
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/cordmesh/cordmesh/pkg/config"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// Context bundles the configuration and collaborator handles shared by
// every state handler. It is cloned by value into each handler; the only
// mutable part is the shared round counter, which uses atomic semantics
// so no locking is required.
type Context struct {
	cfg          config.DiscoveryConfig
	registry     PeerRegistry
	connectivity Connectivity
	syncer       PeerSyncer
	self         peer.ID
	clock        clock.Clock
	logger       *logging.ColoredLogger

	numRounds *atomic.Uint64
}

// NewContext creates a discovery context. The clock is replaceable so
// timer behavior can be controlled in tests; pass clock.New() in
// production.
func NewContext(
	cfg config.DiscoveryConfig,
	registry PeerRegistry,
	connectivity Connectivity,
	syncer PeerSyncer,
	self peer.ID,
	clk clock.Clock,
	logger *logging.ColoredLogger,
) Context {
	if clk == nil {
		clk = clock.New()
	}
	return Context{
		cfg:          cfg,
		registry:     registry,
		connectivity: connectivity,
		syncer:       syncer,
		self:         self,
		clock:        clk,
		logger:       logger,
		numRounds:    &atomic.Uint64{},
	}
}

// Config returns the discovery configuration. Read-only after construction.
func (c Context) Config() config.DiscoveryConfig {
	return c.cfg
}

// Registry returns the peer registry collaborator.
func (c Context) Registry() PeerRegistry {
	return c.registry
}

// Connectivity returns the connectivity collaborator.
func (c Context) Connectivity() Connectivity {
	return c.connectivity
}

// Syncer returns the peer-sync collaborator.
func (c Context) Syncer() PeerSyncer {
	return c.syncer
}

// Self returns this node's own identity.
func (c Context) Self() peer.ID {
	return c.self
}

// Clock returns the clock used for timer states.
func (c Context) Clock() clock.Clock {
	return c.clock
}

// IncrementRoundCount advances the shared round counter by one and
// returns the previous value. Safe under concurrent access.
func (c Context) IncrementRoundCount() uint64 {
	return c.numRounds.Add(1) - 1
}

// RoundCount returns the current round count without mutating it.
func (c Context) RoundCount() uint64 {
	return c.numRounds.Load()
}

// ResetRoundCount sets the round counter back to zero at the start of a
// fresh discovery cycle.
func (c Context) ResetRoundCount() {
	c.numRounds.Store(0)
}
