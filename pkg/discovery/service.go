package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/cordmesh/cordmesh/pkg/config"
	"github.com/cordmesh/cordmesh/pkg/logging"
	"github.com/cordmesh/cordmesh/pkg/telemetry"
)

// Service drives the network discovery state machine. It owns the current
// state, repeatedly asks the active handler for its next event (racing it
// against the cancellation signal), applies the transition function, and
// exits when the shutdown state is reached.
//
// Transitions are strictly sequential: at most one handler is active at a
// time, so State and StateEvent need no locking.
type Service struct {
	dctx      Context
	publisher *Publisher
	logger    *logging.ColoredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a discovery service. publisher may be nil when no external
// notification is wanted.
func New(dctx Context, publisher *Publisher, logger *logging.ColoredLogger) *Service {
	return &Service{
		dctx:      dctx,
		publisher: publisher,
		logger:    logger,
	}
}

// Start runs the state machine on its own goroutine until Stop is called.
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Stop signals shutdown and waits for the state machine to exit.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Run executes the state machine until the context is cancelled. If
// discovery is disabled by configuration, Run returns immediately without
// engaging any event machinery.
func (s *Service) Run(ctx context.Context) {
	if !s.config().Enabled {
		s.logger.ComponentWarn(logging.ComponentDiscovery,
			"Network discovery is disabled. This node may fail to learn about the overlay.")
		return
	}

	st := initializingState()
	for {
		ev := s.nextEventOrShutdown(ctx, st)
		st = s.transition(st, ev)
		if st.isShutdown() {
			s.logger.ComponentInfo(logging.ComponentDiscovery, "Network discovery shut down")
			return
		}
	}
}

// nextEventOrShutdown races the active handler against the cancellation
// signal; whichever completes first wins. The result channel is buffered
// so an abandoned handler goroutine can finish and be collected.
func (s *Service) nextEventOrShutdown(ctx context.Context, st state) stateEvent {
	ch := make(chan stateEvent, 1)
	go func() {
		ch <- s.getNextEvent(ctx, st)
	}()

	select {
	case <-ctx.Done():
		return shutdownEvent()
	case ev := <-ch:
		return ev
	}
}

func (s *Service) getNextEvent(ctx context.Context, st state) stateEvent {
	switch st.kind {
	case stateInitializing:
		return newInitializing(s.dctx).nextEvent(ctx)
	case stateReady:
		return st.ready.nextEvent(ctx)
	case stateDiscovering:
		return st.discovering.nextEvent(ctx)
	case stateWaiting:
		return st.waiting.nextEvent(ctx)
	default:
		return shutdownEvent()
	}
}

// transition maps (current state, event) to the next state. Side effects
// are limited to logging, metrics, and event publication. First match
// wins; unmatched pairs keep the current state.
func (s *Service) transition(current state, ev stateEvent) state {
	cfg := s.config()

	s.logger.ComponentDebug(logging.ComponentDiscovery,
		"Transition triggered",
		zap.Stringer("state", current),
		zap.Stringer("event", ev))

	next := current
	switch {
	case current.kind == stateInitializing && ev.kind == eventInitialized:
		next = readyState(s.dctx, nil)

	case ev.kind == eventReady:
		next = readyState(s.dctx, nil)

	case current.kind == stateReady && ev.kind == eventBeginDiscovery:
		next = discoveringState(s.dctx, ev.params)

	case current.kind == stateDiscovering && ev.kind == eventDiscoveryComplete:
		info := ev.info
		if info.HasNewPeers() {
			s.publishEvent(Event{Kind: EventPeersAdded, Info: info})
			telemetry.PeersAdded.Add(float64(info.NumNewPeers))
		}
		if !info.IsSuccess() {
			telemetry.RoundsTotal.WithLabelValues("failure").Inc()
			next = waitingState(s.dctx, cfg.OnFailureIdlePeriod)
			break
		}
		telemetry.RoundsTotal.WithLabelValues("success").Inc()
		next = readyState(s.dctx, &info)

	case current.kind == stateReady && ev.kind == eventIdle:
		next = waitingState(s.dctx, cfg.IdlePeriod)

	case ev.kind == eventShutdown:
		next = shutdownState()

	case ev.kind == eventErrored:
		telemetry.Errors.Inc()
		s.logger.ComponentError(logging.ComponentDiscovery,
			"Network discovery errored",
			zap.Error(ev.err),
			zap.Duration("retry_in", cfg.OnFailureIdlePeriod))
		next = waitingState(s.dctx, cfg.OnFailureIdlePeriod)

	default:
		s.logger.ComponentDebug(logging.ComponentDiscovery,
			"No state transition for event",
			zap.Stringer("event", ev),
			zap.Stringer("state", current))
		return current
	}

	telemetry.StateTransitions.WithLabelValues(next.kind.String()).Inc()
	return next
}

// publishEvent is best-effort: no subscribers is not a fault and slow
// subscribers never block the loop.
func (s *Service) publishEvent(ev Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ev)
}

func (s *Service) config() config.DiscoveryConfig {
	return s.dctx.Config()
}
