package peers

import (
	"bytes"
	"crypto/sha256"

	"github.com/libp2p/go-libp2p/core/peer"
)

// distanceKey maps a peer ID into the overlay's metric space.
func distanceKey(id peer.ID) [32]byte {
	return sha256.Sum256([]byte(id))
}

// xorDistance returns the XOR distance between two peers' keys.
func xorDistance(a, b peer.ID) [32]byte {
	ka := distanceKey(a)
	kb := distanceKey(b)

	var d [32]byte
	for i := range d {
		d[i] = ka[i] ^ kb[i]
	}
	return d
}

// distanceLess reports whether a is strictly closer than b, comparing
// distances as big-endian integers.
func distanceLess(a, b [32]byte) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
