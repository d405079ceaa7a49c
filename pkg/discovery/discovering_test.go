package discovery

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/cordmesh/cordmesh/pkg/errors"
)

func testParams(ids ...peer.ID) Params {
	return Params{Peers: ids, NumPeersToRequest: 16, MaxAcceptCloserPeers: 125}
}

func TestDiscoveringAggregatesRoundStats(t *testing.T) {
	seen := map[peer.ID]bool{}
	reg := &fakeRegistry{
		addFn: func(rec PeerRecord) (AddResult, error) {
			if seen[rec.ID] {
				return AddResult{New: false}, nil
			}
			seen[rec.ID] = true
			return AddResult{New: true, Neighbour: rec.ID == "close"}, nil
		},
	}
	sync := &fakeSyncer{
		syncFn: func(from peer.ID, n int) ([]PeerRecord, error) {
			// Both candidates report the same two peers; the second pass
			// must count them as duplicates.
			return []PeerRecord{
				{ID: "close", Source: from},
				{ID: "far", Source: from},
			}, nil
		},
	}
	dctx, _ := newTestContext(t, testConfig(), reg, nil, sync)

	ev := newDiscovering(dctx, testParams("p1", "p2")).nextEvent(context.Background())

	if ev.kind != eventDiscoveryComplete {
		t.Fatalf("event = %s; want DiscoveryComplete", ev)
	}
	info := ev.info
	if info.NumSucceeded != 2 {
		t.Fatalf("NumSucceeded = %d; want 2", info.NumSucceeded)
	}
	if info.NumNewPeers != 2 {
		t.Fatalf("NumNewPeers = %d; want 2", info.NumNewPeers)
	}
	if info.NumDuplicatePeers != 2 {
		t.Fatalf("NumDuplicatePeers = %d; want 2", info.NumDuplicatePeers)
	}
	if info.NumNewNeighbours != 1 {
		t.Fatalf("NumNewNeighbours = %d; want 1", info.NumNewNeighbours)
	}
	if len(info.SyncPeers) != 2 {
		t.Fatalf("SyncPeers = %v; want both candidates recorded", info.SyncPeers)
	}
}

func TestDiscoveringSkipsSelfRecords(t *testing.T) {
	added := 0
	reg := &fakeRegistry{
		addFn: func(rec PeerRecord) (AddResult, error) {
			added++
			return AddResult{New: true}, nil
		},
	}
	sync := &fakeSyncer{
		syncFn: func(from peer.ID, n int) ([]PeerRecord, error) {
			return []PeerRecord{
				{ID: "self", Source: from}, // our own identity, must be ignored
				{ID: "other", Source: from},
			}, nil
		},
	}
	dctx, _ := newTestContext(t, testConfig(), reg, nil, sync)

	ev := newDiscovering(dctx, testParams("p1")).nextEvent(context.Background())

	if added != 1 {
		t.Fatalf("registry Add called %d times; self records must be skipped", added)
	}
	if ev.info.NumNewPeers != 1 {
		t.Fatalf("NumNewPeers = %d; want 1", ev.info.NumNewPeers)
	}
}

func TestDiscoveringCapsAcceptedPeers(t *testing.T) {
	reg := &fakeRegistry{
		addFn: func(rec PeerRecord) (AddResult, error) {
			return AddResult{New: true}, nil
		},
	}
	sync := &fakeSyncer{
		syncFn: func(from peer.ID, n int) ([]PeerRecord, error) {
			recs := make([]PeerRecord, 10)
			for i := range recs {
				recs[i] = PeerRecord{ID: peer.ID(string(from) + string(rune('a'+i))), Source: from}
			}
			return recs, nil
		},
	}
	dctx, _ := newTestContext(t, testConfig(), reg, nil, sync)

	params := testParams("p1", "p2")
	params.MaxAcceptCloserPeers = 3
	ev := newDiscovering(dctx, params).nextEvent(context.Background())

	if ev.info.NumNewPeers != 3 {
		t.Fatalf("NumNewPeers = %d; want cap of 3", ev.info.NumNewPeers)
	}
}

func TestDiscoveringPerPeerFailuresAreAbsorbed(t *testing.T) {
	conn := &fakeConnectivity{
		dialFn: func(id peer.ID) error {
			if id == "bad" {
				return stderrors.New("dial refused")
			}
			return nil
		},
	}
	reg := &fakeRegistry{
		addFn: func(rec PeerRecord) (AddResult, error) {
			return AddResult{New: true}, nil
		},
	}
	sync := &fakeSyncer{
		syncFn: func(from peer.ID, n int) ([]PeerRecord, error) {
			return []PeerRecord{{ID: "x", Source: from}}, nil
		},
	}
	dctx, _ := newTestContext(t, testConfig(), reg, conn, sync)

	ev := newDiscovering(dctx, testParams("bad", "good")).nextEvent(context.Background())

	if ev.kind != eventDiscoveryComplete {
		t.Fatalf("event = %s; per-peer failures must not abort the round", ev)
	}
	if ev.info.NumSucceeded != 1 {
		t.Fatalf("NumSucceeded = %d; want 1", ev.info.NumSucceeded)
	}
	if len(ev.info.SyncPeers) != 2 {
		t.Fatalf("SyncPeers = %v; failed attempts still count as contacted", ev.info.SyncPeers)
	}
}

func TestDiscoveringRegistryFailureAbortsRound(t *testing.T) {
	reg := &fakeRegistry{
		addFn: func(rec PeerRecord) (AddResult, error) {
			return AddResult{}, stderrors.New("db closed")
		},
	}
	sync := &fakeSyncer{
		syncFn: func(from peer.ID, n int) ([]PeerRecord, error) {
			return []PeerRecord{{ID: "x", Source: from}}, nil
		},
	}
	dctx, _ := newTestContext(t, testConfig(), reg, nil, sync)

	ev := newDiscovering(dctx, testParams("p1", "p2")).nextEvent(context.Background())

	if ev.kind != eventErrored {
		t.Fatalf("event = %s; a dead registry must abort the round", ev)
	}
	if !errors.IsDiscoveryRound(ev.err) {
		t.Fatalf("err = %v; want a discovery round error", ev.err)
	}
}

func TestDiscoveringNoCandidatesIsAnError(t *testing.T) {
	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)

	ev := newDiscovering(dctx, Params{}).nextEvent(context.Background())
	if ev.kind != eventErrored {
		t.Fatalf("event = %s; want Errored", ev)
	}
}

func TestDiscoveringCancellationYieldsShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dctx, _ := newTestContext(t, testConfig(), nil, nil, nil)
	ev := newDiscovering(dctx, testParams("p1")).nextEvent(ctx)

	if ev.kind != eventShutdown {
		t.Fatalf("event = %s; want Shutdown", ev)
	}
}
