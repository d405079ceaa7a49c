package discovery

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/logging"
)

// ready is the idle-but-armed state. It inspects the context and the
// previous round's statistics (when carried over) to decide whether a
// new discovery round should begin.
type ready struct {
	dctx Context
	// prev holds the statistics of the round that led here, nil when the
	// handler was constructed fresh.
	prev *RoundInfo
}

func newReady(dctx Context, prev *RoundInfo) *ready {
	return &ready{dctx: dctx, prev: prev}
}

func (s *ready) nextEvent(ctx context.Context) stateEvent {
	cfg := s.dctx.Config()

	// After enough consecutive rounds without new neighbours the peer set
	// is considered saturated for now: reset the cycle and idle.
	if s.prev != nil && !s.prev.HasNewNeighbours() && s.dctx.RoundCount() >= uint64(cfg.IdleAfterNRounds) {
		s.dctx.logger.ComponentDebug(logging.ComponentDiscovery,
			"Discovery cycle complete, going idle",
			zap.Uint64("rounds", s.dctx.RoundCount()))
		s.dctx.ResetRoundCount()
		return idleEvent()
	}

	exclude := []peer.ID{s.dctx.Self()}
	if s.prev != nil && !s.prev.HasNewPeers() {
		// The last batch yielded nothing new; try different peers.
		exclude = append(exclude, s.prev.SyncPeers...)
	}

	candidates, err := s.dctx.Registry().SelectSyncCandidates(ctx, cfg.MaxSyncPeers, exclude)
	if err != nil {
		return erroredEvent(fmt.Errorf("failed to select sync candidates: %w", err))
	}

	if len(candidates) == 0 {
		s.dctx.logger.ComponentDebug(logging.ComponentDiscovery, "No sync candidates available, going idle")
		return idleEvent()
	}

	s.dctx.IncrementRoundCount()

	return beginDiscoveryEvent(Params{
		Peers:                candidates,
		NumPeersToRequest:    cfg.NumPeersToRequest,
		MaxAcceptCloserPeers: cfg.MaxAcceptCloserPeers,
	})
}
