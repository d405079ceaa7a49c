package discovery

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
)

func TestRoundInfoPredicates(t *testing.T) {
	var zero RoundInfo
	if zero.HasNewPeers() || zero.HasNewNeighbours() || zero.IsSuccess() {
		t.Fatalf("zero round info must report nothing")
	}

	info := RoundInfo{NumNewPeers: 3, NumSucceeded: 1}
	if !info.HasNewPeers() {
		t.Fatalf("HasNewPeers = false; want true")
	}
	if info.HasNewNeighbours() {
		t.Fatalf("HasNewNeighbours = true; want false")
	}
	if !info.IsSuccess() {
		t.Fatalf("IsSuccess = false; want true")
	}

	// Duplicates alone are still a success when a peer answered.
	dup := RoundInfo{NumDuplicatePeers: 5, NumSucceeded: 2}
	if dup.HasNewPeers() {
		t.Fatalf("duplicates must not count as new peers")
	}
	if !dup.IsSuccess() {
		t.Fatalf("a round with responses is a success even without new peers")
	}
}

func TestRoundInfoString(t *testing.T) {
	info := RoundInfo{
		NumSucceeded:      2,
		NumNewNeighbours:  1,
		NumNewPeers:       4,
		NumDuplicatePeers: 3,
		SyncPeers:         []peer.ID{"p1", "p2", "p3"},
	}
	want := "Synced 2/3, num_new_neighbours = 1, num_new_peers = 4, num_duplicate_peers = 3"
	if got := info.String(); got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}
}

func TestParamsString(t *testing.T) {
	p := Params{Peers: []peer.ID{"p1", "p2"}, NumPeersToRequest: 16, MaxAcceptCloserPeers: 125}
	want := "Params(2 peer(s) selected, num_peers_to_request = 16, max_accept_closer_peers = 125)"
	if got := p.String(); got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}
}
