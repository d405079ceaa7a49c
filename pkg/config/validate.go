package config

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "discovery.bootstrap_peers[0]"
	Message string // e.g., "invalid multiaddr"
	Hint    string // e.g., "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print
// all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNode()...)
	errs = append(errs, c.validateDiscovery()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateNode() []error {
	var errs []error
	nc := c.Node

	if len(nc.ListenAddresses) == 0 {
		errs = append(errs, ValidationError{
			Path:    "node.listen_addresses",
			Message: "must not be empty",
		})
	}

	for i, addr := range nc.ListenAddresses {
		path := fmt.Sprintf("node.listen_addresses[%d]", i)
		if _, err := multiaddr.NewMultiaddr(addr); err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>",
			})
		}
	}

	if nc.DataDir == "" {
		errs = append(errs, ValidationError{
			Path:    "node.data_dir",
			Message: "must not be empty",
		})
	}

	if nc.MaxConnections < 1 {
		errs = append(errs, ValidationError{
			Path:    "node.max_connections",
			Message: "must be at least 1",
		})
	}

	return errs
}

func (c *Config) validateDiscovery() []error {
	var errs []error
	dc := c.Discovery

	if !dc.Enabled {
		// Nothing else to check; the subsystem will not start.
		return errs
	}

	for i, addr := range dc.BootstrapPeers {
		path := fmt.Sprintf("discovery.bootstrap_peers[%d]", i)
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("invalid multiaddr: %v", err),
				Hint:    "expected /ip{4,6}/.../tcp/<port>/p2p/<peerID>",
			})
			continue
		}
		if _, err := peer.AddrInfoFromP2pAddr(ma); err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "multiaddr is missing a /p2p/<peerID> component",
				Hint:    "bootstrap peers must carry the peer identity",
			})
		}
	}

	if dc.IdlePeriod <= 0 {
		errs = append(errs, ValidationError{
			Path:    "discovery.idle_period",
			Message: "must be positive",
		})
	}

	if dc.OnFailureIdlePeriod <= 0 {
		errs = append(errs, ValidationError{
			Path:    "discovery.on_failure_idle_period",
			Message: "must be positive",
		})
	}

	if dc.IdleAfterNRounds < 1 {
		errs = append(errs, ValidationError{
			Path:    "discovery.idle_after_n_rounds",
			Message: "must be at least 1",
		})
	}

	if dc.MaxSyncPeers < 1 {
		errs = append(errs, ValidationError{
			Path:    "discovery.max_sync_peers",
			Message: "must be at least 1",
		})
	}

	if dc.NumPeersToRequest < 1 {
		errs = append(errs, ValidationError{
			Path:    "discovery.num_peers_to_request",
			Message: "must be at least 1",
		})
	}

	if dc.MaxAcceptCloserPeers < 1 {
		errs = append(errs, ValidationError{
			Path:    "discovery.max_accept_closer_peers",
			Message: "must be at least 1",
		})
	}

	if dc.NumNeighbours < 1 {
		errs = append(errs, ValidationError{
			Path:    "discovery.num_neighbours",
			Message: "must be at least 1",
		})
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	lc := c.Logging

	switch lc.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("unknown level %q", lc.Level),
			Hint:    "expected one of debug, info, warn, error",
		})
	}

	switch lc.Format {
	case "", "console", "json":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("unknown format %q", lc.Format),
			Hint:    "expected console or json",
		})
	}

	return errs
}
