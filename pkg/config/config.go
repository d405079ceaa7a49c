package config

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// Config represents the main configuration for an overlay node
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// NodeConfig contains node-specific configuration
type NodeConfig struct {
	ID              string   `yaml:"id"`               // Optional label for this node
	ListenAddresses []string `yaml:"listen_addresses"` // LibP2P listen addresses
	DataDir         string   `yaml:"data_dir"`         // Data directory
	MaxConnections  int      `yaml:"max_connections"`  // Maximum peer connections
}

// DiscoveryConfig contains the network discovery state machine configuration
type DiscoveryConfig struct {
	Enabled        bool     `yaml:"enabled"`         // Gate the whole subsystem
	BootstrapPeers []string `yaml:"bootstrap_peers"` // Multiaddrs (with /p2p/ suffix) to seed from

	IdlePeriod          time.Duration `yaml:"idle_period"`            // Delay after an Idle decision
	OnFailureIdlePeriod time.Duration `yaml:"on_failure_idle_period"` // Backoff after any failure or unsuccessful round

	IdleAfterNRounds     int `yaml:"idle_after_n_rounds"`     // Consecutive rounds before Ready decides to idle
	MaxSyncPeers         int `yaml:"max_sync_peers"`          // Candidate peers contacted per round
	NumPeersToRequest    int `yaml:"num_peers_to_request"`    // Peers requested from each candidate
	MaxAcceptCloserPeers int `yaml:"max_accept_closer_peers"` // Cap on closer peers accepted per round
	NumNeighbours        int `yaml:"num_neighbours"`          // Neighbourhood size for round accounting
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputFile string `yaml:"output_file"` // Empty for stdout
}

// MetricsConfig contains prometheus metrics exposure configuration
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Serve /metrics
	ListenAddr string `yaml:"listen_addr"` // Address to listen on (e.g., ":9090")
}

// DefaultConfig returns a configuration with sane defaults for a node
// joining an existing overlay.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ListenAddresses: []string{"/ip4/0.0.0.0/tcp/4001"},
			DataDir:         "./data",
			MaxConnections:  50,
		},
		Discovery: DiscoveryConfig{
			Enabled:              true,
			IdlePeriod:           30 * time.Second,
			OnFailureIdlePeriod:  60 * time.Second,
			IdleAfterNRounds:     10,
			MaxSyncPeers:         5,
			NumPeersToRequest:    16,
			MaxAcceptCloserPeers: 125,
			NumNeighbours:        8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9090",
		},
	}
}

// ParseMultiaddrs parses the configured listen addresses
func (c *Config) ParseMultiaddrs() ([]multiaddr.Multiaddr, error) {
	addrs := make([]multiaddr.Multiaddr, 0, len(c.Node.ListenAddresses))
	for _, s := range c.Node.ListenAddresses {
		ma, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, ma)
	}
	return addrs, nil
}

// BootstrapAddrInfos parses the configured bootstrap peers into AddrInfos.
// Invalid entries are skipped; validation reports them separately.
func (c *DiscoveryConfig) BootstrapAddrInfos() []peer.AddrInfo {
	infos := make([]peer.AddrInfo, 0, len(c.BootstrapPeers))
	for _, s := range c.BootstrapPeers {
		ma, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	return infos
}
