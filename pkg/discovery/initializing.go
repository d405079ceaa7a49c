package discovery

import (
	"context"

	"github.com/cordmesh/cordmesh/pkg/errors"
	"github.com/cordmesh/cordmesh/pkg/logging"
)

// initializing performs startup validation before the first discovery
// cycle: the node must have at least one established session before
// rounds can do useful work.
type initializing struct {
	dctx Context
}

func newInitializing(dctx Context) *initializing {
	return &initializing{dctx: dctx}
}

func (s *initializing) nextEvent(ctx context.Context) stateEvent {
	s.dctx.logger.ComponentDebug(logging.ComponentDiscovery, "Waiting for connectivity before starting discovery")

	if err := s.dctx.Connectivity().WaitForConnectivity(ctx); err != nil {
		return erroredEvent(errors.NewInitializationError(
			"network discovery", "connectivity not established", err))
	}

	// A fresh cycle starts counting rounds from zero.
	s.dctx.ResetRoundCount()

	return initializedEvent()
}
