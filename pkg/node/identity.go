package node

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
)

const identityFileName = "identity.key"

// loadOrCreateIdentity loads the node's persistent identity key, creating
// a fresh ed25519 key on first run. The key file is private to the node.
func loadOrCreateIdentity(dataDir string) (crypto.PrivKey, error) {
	identityFile := filepath.Join(dataDir, identityFileName)

	if _, err := os.Stat(identityFile); err == nil {
		data, err := os.ReadFile(identityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read identity file: %w", err)
		}

		priv, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal identity key: %w", err)
		}
		return priv, nil
	}

	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity key: %w", err)
	}

	data, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity key: %w", err)
	}

	if err := os.WriteFile(identityFile, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to save identity key: %w", err)
	}

	return priv, nil
}
