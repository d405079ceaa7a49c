package discovery

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/errors"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// dialTimeout bounds the session establishment for a single candidate;
// the peer-exchange request itself runs under the loop's context.
const dialTimeout = 15 * time.Second

// discovering runs one full discovery round against the supplied params.
// Per-peer failures are absorbed into the round statistics; only failures
// that make the whole round meaningless yield an error event.
type discovering struct {
	dctx   Context
	params Params
}

func newDiscovering(dctx Context, params Params) *discovering {
	return &discovering{dctx: dctx, params: params}
}

func (s *discovering) nextEvent(ctx context.Context) stateEvent {
	if len(s.params.Peers) == 0 {
		return erroredEvent(errors.NewDiscoveryRoundError("no candidate peers for discovery round", nil))
	}

	var info RoundInfo
	accepted := 0

	for _, pid := range s.params.Peers {
		if ctx.Err() != nil {
			return shutdownEvent()
		}

		info.SyncPeers = append(info.SyncPeers, pid)

		if err := s.syncPeer(ctx, pid, &info, &accepted); err != nil {
			if errors.IsDiscoveryRound(err) {
				return erroredEvent(err)
			}
			s.dctx.logger.ComponentDebug(logging.ComponentDiscovery,
				"Peer sync failed",
				zap.String("peer", pid.String()),
				zap.Error(err))
			continue
		}

		info.NumSucceeded++
	}

	s.dctx.logger.ComponentDebug(logging.ComponentDiscovery,
		"Discovery round complete",
		zap.Stringer("info", info))

	return discoveryCompleteEvent(info)
}

// syncPeer contacts a single candidate and merges its reported peers into
// the registry. Returned errors are per-peer unless wrapped as a round
// error, which aborts the round.
func (s *discovering) syncPeer(ctx context.Context, pid peer.ID, info *RoundInfo, accepted *int) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	err := s.dctx.Connectivity().DialPeer(dialCtx, pid)
	cancel()
	if err != nil {
		return err
	}

	recs, err := s.dctx.Syncer().SyncPeers(ctx, pid, s.params.NumPeersToRequest)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		if rec.ID == s.dctx.Self() {
			continue
		}
		if *accepted >= s.params.MaxAcceptCloserPeers {
			break
		}

		res, err := s.dctx.Registry().Add(ctx, rec)
		if err != nil {
			// A registry that cannot store peers makes the round meaningless.
			return errors.NewDiscoveryRoundError("peer registry rejected record", err)
		}

		if !res.New {
			info.NumDuplicatePeers++
			continue
		}

		info.NumNewPeers++
		*accepted++
		if res.Neighbour {
			info.NumNewNeighbours++
		}
	}

	return nil
}
