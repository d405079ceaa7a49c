package peersync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/discovery"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// RecordSource supplies the peer records the server side answers with.
// Implemented by the peer registry.
type RecordSource interface {
	Known(ctx context.Context, n int, exclude []peer.ID) ([]discovery.PeerRecord, error)
}

// Server answers peer-exchange requests from other nodes.
type Server struct {
	host   host.Host
	source RecordSource
	logger *logging.ColoredLogger
}

// NewServer creates a peer-sync server. Call Start to register the stream
// handler.
func NewServer(h host.Host, source RecordSource, logger *logging.ColoredLogger) *Server {
	return &Server{host: h, source: source, logger: logger}
}

// Start registers the protocol handler on the host.
func (s *Server) Start() {
	s.host.SetStreamHandler(ProtocolID, s.handleStream)
}

// Stop removes the protocol handler.
func (s *Server) Stop() {
	s.host.RemoveStreamHandler(ProtocolID)
}

func (s *Server) handleStream(stream network.Stream) {
	defer stream.Close()
	_ = stream.SetDeadline(time.Now().Add(syncTimeout))

	remote := stream.Conn().RemotePeer()

	var req syncRequest
	if err := json.NewDecoder(stream).Decode(&req); err != nil {
		s.logger.ComponentDebug(logging.ComponentPeerSync,
			"Failed to decode peersync request",
			zap.String("from", remote.String()),
			zap.Error(err))
		stream.Reset()
		return
	}

	n := req.NumPeers
	if n < 1 || n > maxPeersPerResponse {
		n = maxPeersPerResponse
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	// Never report the requester back to itself.
	recs, err := s.source.Known(ctx, n, []peer.ID{remote})
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentPeerSync,
			"Failed to load peers for sync response",
			zap.Error(err))
		stream.Reset()
		return
	}

	resp := syncResponse{Peers: make([]peerInfo, 0, len(recs))}
	for _, rec := range recs {
		info := peerInfo{ID: rec.ID.String()}
		for _, a := range rec.Addrs {
			info.Addrs = append(info.Addrs, a.String())
		}
		resp.Peers = append(resp.Peers, info)
	}

	if err := json.NewEncoder(stream).Encode(&resp); err != nil {
		s.logger.ComponentDebug(logging.ComponentPeerSync,
			"Failed to send peersync response",
			zap.String("to", remote.String()),
			zap.Error(err))
		stream.Reset()
		return
	}

	s.logger.ComponentDebug(logging.ComponentPeerSync,
		"Served peersync request",
		zap.String("to", remote.String()),
		zap.Int("peers", len(resp.Peers)))
}
