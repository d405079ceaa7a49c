package peersync

import (
	"github.com/libp2p/go-libp2p/core/protocol"
)

// ProtocolID identifies the peer-exchange protocol spoken over a libp2p
// stream. One request, one response, then the stream closes.
const ProtocolID = protocol.ID("/cordmesh/peersync/1.0.0")

// maxPeersPerResponse bounds how many records a single response carries,
// whatever the requester asked for.
const maxPeersPerResponse = 256

// syncRequest asks a peer for up to NumPeers of the peers it knows.
type syncRequest struct {
	NumPeers int `json:"num_peers"`
}

// peerInfo is one peer record on the wire.
type peerInfo struct {
	ID    string   `json:"id"`
	Addrs []string `json:"addrs"`
}

// syncResponse carries the peers the remote side chose to report.
type syncResponse struct {
	Peers []peerInfo `json:"peers"`
}
