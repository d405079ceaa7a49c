package peersync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/discovery"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// syncTimeout bounds one request/response exchange.
const syncTimeout = 30 * time.Second

// Syncer implements discovery.PeerSyncer over libp2p streams.
type Syncer struct {
	host   host.Host
	logger *logging.ColoredLogger
}

// NewSyncer creates a peer-sync client bound to the given host.
func NewSyncer(h host.Host, logger *logging.ColoredLogger) *Syncer {
	return &Syncer{host: h, logger: logger}
}

// SyncPeers runs one peer-exchange round trip against a connected peer.
func (s *Syncer) SyncPeers(ctx context.Context, from peer.ID, numToRequest int) ([]discovery.PeerRecord, error) {
	stream, err := s.host.NewStream(ctx, from, ProtocolID)
	if err != nil {
		return nil, fmt.Errorf("failed to open peersync stream: %w", err)
	}
	defer stream.Close()

	deadline := time.Now().Add(syncTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = stream.SetDeadline(deadline)

	if err := json.NewEncoder(stream).Encode(syncRequest{NumPeers: numToRequest}); err != nil {
		stream.Reset()
		return nil, fmt.Errorf("failed to send peersync request: %w", err)
	}

	var resp syncResponse
	if err := json.NewDecoder(stream).Decode(&resp); err != nil {
		stream.Reset()
		return nil, fmt.Errorf("failed to read peersync response: %w", err)
	}

	recs := make([]discovery.PeerRecord, 0, len(resp.Peers))
	for _, info := range resp.Peers {
		id, err := peer.Decode(info.ID)
		if err != nil {
			s.logger.ComponentDebug(logging.ComponentPeerSync,
				"Skipping invalid peer ID in response",
				zap.String("from", from.String()),
				zap.Error(err))
			continue
		}

		var addrs []multiaddr.Multiaddr
		for _, a := range info.Addrs {
			ma, err := multiaddr.NewMultiaddr(a)
			if err != nil {
				continue
			}
			addrs = append(addrs, ma)
		}

		recs = append(recs, discovery.PeerRecord{
			ID:     id,
			Addrs:  addrs,
			Source: from,
		})
	}

	s.logger.ComponentDebug(logging.ComponentPeerSync,
		"Peer sync complete",
		zap.String("from", from.String()),
		zap.Int("received", len(recs)))

	return recs, nil
}
