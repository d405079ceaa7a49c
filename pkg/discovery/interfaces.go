package discovery

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// PeerRecord is a peer learned through discovery, together with the
// addresses it can be reached at and the peer that reported it.
type PeerRecord struct {
	ID     peer.ID
	Addrs  []multiaddr.Multiaddr
	Source peer.ID
}

// AddResult reports how the registry merged a peer record.
type AddResult struct {
	// New is true when the peer was not previously known.
	New bool
	// Neighbour is true when the peer lands in this node's neighbourhood
	// under the overlay's distance metric.
	Neighbour bool
}

// PeerRegistry persists peers learned through discovery. Implementations
// must tolerate concurrent use: other node subsystems (e.g. inbound
// connections) merge peers independently of the discovery loop.
type PeerRegistry interface {
	// Add merges a peer record, reporting whether it was new and whether
	// it is a neighbour. Adding an already-known peer updates its
	// addresses and is reported as a duplicate, not an error.
	Add(ctx context.Context, rec PeerRecord) (AddResult, error)

	// SelectSyncCandidates returns up to n known peers to contact in a
	// discovery round, excluding the given IDs.
	SelectSyncCandidates(ctx context.Context, n int, exclude []peer.ID) ([]peer.ID, error)

	// Count returns the number of known peers.
	Count(ctx context.Context) (int, error)
}

// Connectivity establishes transport-level sessions with candidate peers.
type Connectivity interface {
	// DialPeer establishes a session with the peer, using whatever
	// addresses the surrounding node knows for it.
	DialPeer(ctx context.Context, id peer.ID) error

	// NumConnected reports the number of currently established sessions.
	NumConnected() int

	// WaitForConnectivity blocks until the node has at least one
	// established session or the context is cancelled.
	WaitForConnectivity(ctx context.Context) error
}

// PeerSyncer runs the peer-exchange protocol against a single connected
// peer, returning the peer records it reported.
type PeerSyncer interface {
	SyncPeers(ctx context.Context, from peer.ID, numToRequest int) ([]PeerRecord, error)
}
