package node

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p"
	gossipsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	noise "github.com/libp2p/go-libp2p/p2p/security/noise"
	libp2pquic "github.com/libp2p/go-libp2p/p2p/transport/quic"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/config"
	"github.com/cordmesh/cordmesh/pkg/discovery"
	"github.com/cordmesh/cordmesh/pkg/logging"
	"github.com/cordmesh/cordmesh/pkg/peers"
	"github.com/cordmesh/cordmesh/pkg/peersync"
	"github.com/cordmesh/cordmesh/pkg/pubsub"
	"github.com/cordmesh/cordmesh/pkg/telemetry"
)

const peerStoreFileName = "peers.db"

// Node assembles the overlay node: libp2p host, peer registry, peer-sync
// protocol, gossip announcer, and the network discovery state machine.
type Node struct {
	config *config.Config
	logger *logging.ColoredLogger

	host       host.Host
	store      *peers.Store
	syncServer *peersync.Server
	manager    *pubsub.Manager
	announcer  *pubsub.Announcer
	publisher  *discovery.Publisher
	discovery  *discovery.Service

	metricsSrv *http.Server
}

// NewNode creates an overlay node from the given configuration.
func NewNode(cfg *config.Config, logger *logging.ColoredLogger) *Node {
	return &Node{
		config: cfg,
		logger: logger,
	}
}

// Start brings the node up. The context bounds startup work only; use
// Stop to shut the node down.
func (n *Node) Start(ctx context.Context) error {
	n.logger.ComponentInfo(logging.ComponentNode, "Starting overlay node",
		zap.String("data_dir", n.config.Node.DataDir))

	if err := os.MkdirAll(n.config.Node.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := n.startHost(); err != nil {
		return fmt.Errorf("failed to start libp2p host: %w", err)
	}

	if err := n.startPeerStore(); err != nil {
		return fmt.Errorf("failed to open peer store: %w", err)
	}

	n.seedBootstrapPeers(ctx)

	if err := n.startPubSub(ctx); err != nil {
		return fmt.Errorf("failed to start pubsub: %w", err)
	}

	n.startDiscovery()
	n.startMetrics()

	var listenAddrs []string
	for _, addr := range n.host.Addrs() {
		listenAddrs = append(listenAddrs, addr.String())
	}
	n.logger.ComponentInfo(logging.ComponentNode, "Overlay node started",
		zap.String("peer_id", n.host.ID().String()),
		zap.Strings("listen_addrs", listenAddrs))

	return nil
}

// Stop shuts the node down in reverse start order.
func (n *Node) Stop() error {
	if n.discovery != nil {
		n.discovery.Stop()
	}
	if n.announcer != nil {
		n.announcer.Stop()
	}
	if n.publisher != nil {
		n.publisher.Close()
	}
	if n.manager != nil {
		_ = n.manager.Close()
	}
	if n.syncServer != nil {
		n.syncServer.Stop()
	}
	if n.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = n.metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}

	var firstErr error
	if n.store != nil {
		if err := n.store.Close(); err != nil {
			firstErr = err
		}
	}
	if n.host != nil {
		if err := n.host.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	n.logger.ComponentInfo(logging.ComponentNode, "Overlay node stopped")
	return firstErr
}

// Host exposes the libp2p host, mainly for tests and tooling.
func (n *Node) Host() host.Host {
	return n.host
}

// DiscoveryEvents subscribes to the node's discovery event bus.
func (n *Node) DiscoveryEvents(buffer int) (string, <-chan discovery.Event) {
	return n.publisher.Subscribe(buffer)
}

func (n *Node) startHost() error {
	listenAddrs, err := n.config.ParseMultiaddrs()
	if err != nil {
		return fmt.Errorf("failed to parse listen addresses: %w", err)
	}

	identity, err := loadOrCreateIdentity(n.config.Node.DataDir)
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(identity),
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.Security(noise.ID, noise.New),
		libp2p.Transport(tcp.NewTCPTransport),
		libp2p.Transport(libp2pquic.NewTransport),
		libp2p.DefaultMuxers,
	)
	if err != nil {
		return err
	}
	n.host = h

	return nil
}

func (n *Node) startPeerStore() error {
	store, err := peers.NewStore(peers.Config{
		Path:          filepath.Join(n.config.Node.DataDir, peerStoreFileName),
		Self:          n.host.ID(),
		NumNeighbours: n.config.Discovery.NumNeighbours,
		Peerstore:     n.host.Peerstore(),
		Logger:        n.logger,
	})
	if err != nil {
		return err
	}
	n.store = store

	n.syncServer = peersync.NewServer(n.host, store, n.logger)
	n.syncServer.Start()

	return nil
}

// seedBootstrapPeers merges the configured bootstrap peers into the
// registry so the first discovery round has someone to talk to.
func (n *Node) seedBootstrapPeers(ctx context.Context) {
	for _, info := range n.config.Discovery.BootstrapAddrInfos() {
		if info.ID == n.host.ID() {
			continue
		}
		_, err := n.store.Add(ctx, discovery.PeerRecord{
			ID:    info.ID,
			Addrs: info.Addrs,
		})
		if err != nil {
			n.logger.ComponentWarn(logging.ComponentNode,
				"Failed to seed bootstrap peer",
				zap.String("peer", info.ID.String()),
				zap.Error(err))
		}
	}
}

func (n *Node) startPubSub(ctx context.Context) error {
	ps, err := gossipsub.NewGossipSub(ctx, n.host)
	if err != nil {
		return err
	}
	n.manager = pubsub.NewManager(ps)
	n.publisher = discovery.NewPublisher(n.logger)
	n.announcer = pubsub.NewAnnouncer(n.manager, n.publisher, n.host.ID().String(), n.logger)
	n.announcer.Start()

	return nil
}

func (n *Node) startDiscovery() {
	conn := newConnectivity(n.host, n.config.Discovery.BootstrapAddrInfos(), n.logger)
	syncer := peersync.NewSyncer(n.host, n.logger)

	dctx := discovery.NewContext(
		n.config.Discovery,
		n.store,
		conn,
		syncer,
		n.host.ID(),
		clock.New(),
		n.logger,
	)

	n.discovery = discovery.New(dctx, n.publisher, n.logger)
	n.discovery.Start()
}

func (n *Node) startMetrics() {
	if !n.config.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	n.metricsSrv = &http.Server{
		Addr:    n.config.Metrics.ListenAddr,
		Handler: mux,
	}

	go func() {
		if err := n.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.ComponentError(logging.ComponentNode, "Metrics server failed", zap.Error(err))
		}
	}()
}
