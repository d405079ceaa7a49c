package discovery

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Params describes one discovery round: the candidate peers to query, how
// many peers to request from each, and a cap on how many closer peers to
// accept. Immutable once constructed.
type Params struct {
	Peers                []peer.ID
	NumPeersToRequest    int
	MaxAcceptCloserPeers int
}

func (p Params) String() string {
	return fmt.Sprintf(
		"Params(%d peer(s) selected, num_peers_to_request = %d, max_accept_closer_peers = %d)",
		len(p.Peers), p.NumPeersToRequest, p.MaxAcceptCloserPeers,
	)
}

// RoundInfo holds the aggregate statistics of one discovery round.
// Constructed once per completed round and read-only thereafter.
type RoundInfo struct {
	NumNewNeighbours  int
	NumNewPeers       int
	NumDuplicatePeers int
	NumSucceeded      int
	// SyncPeers lists the peers actually contacted during the round.
	SyncPeers []peer.ID
}

// HasNewPeers reports whether the round learned at least one new peer.
func (i RoundInfo) HasNewPeers() bool {
	return i.NumNewPeers > 0
}

// HasNewNeighbours reports whether the round learned at least one new
// neighbour.
func (i RoundInfo) HasNewNeighbours() bool {
	return i.NumNewNeighbours > 0
}

// IsSuccess reports whether at least one sync peer was contacted and
// completed the protocol.
func (i RoundInfo) IsSuccess() bool {
	return i.NumSucceeded > 0
}

func (i RoundInfo) String() string {
	return fmt.Sprintf(
		"Synced %d/%d, num_new_neighbours = %d, num_new_peers = %d, num_duplicate_peers = %d",
		i.NumSucceeded, len(i.SyncPeers), i.NumNewNeighbours, i.NumNewPeers, i.NumDuplicatePeers,
	)
}
