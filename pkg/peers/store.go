package peers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/multiformats/go-multiaddr"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/discovery"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

const peersBucket = "peers"

// addrTTL is how long mirrored addresses stay valid in the libp2p
// peerstore before the peer must be rediscovered.
const addrTTL = 24 * time.Hour

// record is the stored form of a peer.
type record struct {
	Addrs     []string `json:"addrs"`
	Source    string   `json:"source,omitempty"`
	FirstSeen int64    `json:"first_seen"`
	LastSeen  int64    `json:"last_seen"`
}

// Config contains the configuration for a Store
type Config struct {
	Path          string
	Self          peer.ID
	NumNeighbours int
	FileMode      os.FileMode
	Options       *bbolt.Options

	// Peerstore, when set, receives every stored address so the
	// connectivity layer can dial discovered peers.
	Peerstore peerstore.Peerstore
	Logger    *logging.ColoredLogger
}

// Store is a bbolt-backed peer registry. It implements
// discovery.PeerRegistry and is safe for concurrent use; other node
// subsystems may merge peers while a discovery round is running.
type Store struct {
	db            *bbolt.DB
	self          peer.ID
	numNeighbours int
	mirror        peerstore.Peerstore
	logger        *logging.ColoredLogger
}

// NewStore opens (or creates) the peer database at cfg.Path.
func NewStore(cfg Config) (*Store, error) {
	if cfg.FileMode == 0 {
		cfg.FileMode = 0600
	}
	if cfg.NumNeighbours < 1 {
		cfg.NumNeighbours = 8
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to open peer store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(peersBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize peer store: %w", err)
	}

	return &Store{
		db:            db,
		self:          cfg.Self,
		numNeighbours: cfg.NumNeighbours,
		mirror:        cfg.Peerstore,
		logger:        cfg.Logger,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add merges a peer record. Known peers get their addresses and last-seen
// time refreshed and are reported as duplicates. The self peer is never
// stored.
func (s *Store) Add(ctx context.Context, rec discovery.PeerRecord) (discovery.AddResult, error) {
	if err := ctx.Err(); err != nil {
		return discovery.AddResult{}, err
	}
	if rec.ID == s.self {
		return discovery.AddResult{}, nil
	}

	now := time.Now().Unix()
	var res discovery.AddResult

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(peersBucket))
		key := []byte(rec.ID)

		stored := record{FirstSeen: now}
		if existing := bucket.Get(key); existing != nil {
			if err := json.Unmarshal(existing, &stored); err != nil {
				return fmt.Errorf("corrupt peer record for %s: %w", rec.ID, err)
			}
		} else {
			res.New = true
			res.Neighbour = s.isNeighbour(bucket, rec.ID)
		}

		stored.LastSeen = now
		stored.Addrs = mergeAddrs(stored.Addrs, rec.Addrs)
		if rec.Source != "" {
			stored.Source = rec.Source.String()
		}

		data, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return discovery.AddResult{}, err
	}

	if s.mirror != nil && len(rec.Addrs) > 0 {
		s.mirror.AddAddrs(rec.ID, rec.Addrs, addrTTL)
	}

	if res.New && s.logger != nil {
		s.logger.ComponentDebug(logging.ComponentStorage,
			"Stored newly discovered peer",
			zap.String("peer", rec.ID.String()),
			zap.Bool("neighbour", res.Neighbour))
	}

	return res, nil
}

// isNeighbour reports whether id would rank among the numNeighbours
// closest known peers to this node.
func (s *Store) isNeighbour(bucket *bbolt.Bucket, id peer.ID) bool {
	d := xorDistance(s.self, id)

	closer := 0
	_ = bucket.ForEach(func(k, _ []byte) error {
		other := peer.ID(k)
		if distanceLess(xorDistance(s.self, other), d) {
			closer++
		}
		return nil
	})

	return closer < s.numNeighbours
}

// SelectSyncCandidates returns up to n known peers, closest to this node
// first, excluding the given IDs.
func (s *Store) SelectSyncCandidates(ctx context.Context, n int, exclude []peer.ID) ([]peer.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, nil
	}

	excluded := make(map[peer.ID]struct{}, len(exclude)+1)
	excluded[s.self] = struct{}{}
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var candidates []peer.ID
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(peersBucket)).ForEach(func(k, _ []byte) error {
			id := peer.ID(k)
			if _, skip := excluded[id]; skip {
				return nil
			}
			candidates = append(candidates, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return distanceLess(xorDistance(s.self, candidates[i]), xorDistance(s.self, candidates[j]))
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// Count returns the number of known peers.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(peersBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

// Known returns the stored records for up to n peers, excluding the given
// IDs. Used by the peer-sync server side to answer requests.
func (s *Store) Known(ctx context.Context, n int, exclude []peer.ID) ([]discovery.PeerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded := make(map[peer.ID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var recs []discovery.PeerRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(peersBucket)).ForEach(func(k, v []byte) error {
			if n > 0 && len(recs) >= n {
				return nil
			}
			id := peer.ID(k)
			if _, skip := excluded[id]; skip {
				return nil
			}

			var stored record
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupt entries
			}

			recs = append(recs, discovery.PeerRecord{
				ID:    id,
				Addrs: parseAddrs(stored.Addrs),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func mergeAddrs(existing []string, addrs []multiaddr.Multiaddr) []string {
	seen := make(map[string]struct{}, len(existing))
	merged := existing
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, a := range addrs {
		str := a.String()
		if _, ok := seen[str]; ok {
			continue
		}
		seen[str] = struct{}{}
		merged = append(merged, str)
	}
	return merged
}

func parseAddrs(strs []string) []multiaddr.Multiaddr {
	addrs := make([]multiaddr.Multiaddr, 0, len(strs))
	for _, s := range strs {
		a, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs
}
