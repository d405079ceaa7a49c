package node

import (
	"context"
	"errors"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/logging"
)

// connectivityPollInterval is how often WaitForConnectivity retries.
const connectivityPollInterval = time.Second

// connectivity implements discovery.Connectivity over the libp2p host.
// Addresses come from the host's peerstore, which the peer registry keeps
// populated.
type connectivity struct {
	host      host.Host
	bootstrap []peer.AddrInfo
	logger    *logging.ColoredLogger
}

func newConnectivity(h host.Host, bootstrap []peer.AddrInfo, logger *logging.ColoredLogger) *connectivity {
	return &connectivity{host: h, bootstrap: bootstrap, logger: logger}
}

// DialPeer establishes a session with the peer using its peerstore
// addresses. Already-connected peers succeed immediately.
func (c *connectivity) DialPeer(ctx context.Context, id peer.ID) error {
	if c.host.Network().Connectedness(id) == network.Connected {
		return nil
	}

	info := c.host.Peerstore().PeerInfo(id)
	if len(info.Addrs) == 0 {
		return errors.New("no addresses for peer")
	}

	if err := c.host.Connect(ctx, info); err != nil {
		c.logger.ComponentDebug(logging.ComponentLibP2P,
			"Failed to connect to peer",
			zap.String("peer", id.String()),
			zap.Error(err))
		return err
	}

	return nil
}

// NumConnected reports the number of established sessions.
func (c *connectivity) NumConnected() int {
	return len(c.host.Network().Peers())
}

// WaitForConnectivity blocks until at least one session is established or
// the context is cancelled, dialling bootstrap peers while it waits.
func (c *connectivity) WaitForConnectivity(ctx context.Context) error {
	ticker := time.NewTicker(connectivityPollInterval)
	defer ticker.Stop()

	for {
		if c.NumConnected() > 0 {
			return nil
		}

		c.dialBootstrapPeers(ctx)

		if c.NumConnected() > 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *connectivity) dialBootstrapPeers(ctx context.Context) {
	for _, info := range c.bootstrap {
		if info.ID == c.host.ID() {
			continue
		}
		if c.host.Network().Connectedness(info.ID) == network.Connected {
			continue
		}

		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := c.host.Connect(dialCtx, info)
		cancel()
		if err != nil {
			c.logger.ComponentDebug(logging.ComponentLibP2P,
				"Failed to connect to bootstrap peer",
				zap.String("peer", info.ID.String()),
				zap.Error(err))
		}
	}
}
