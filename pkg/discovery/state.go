package discovery

import (
	"fmt"
	"time"
)

// stateKind tags the state union.
type stateKind int

const (
	stateInitializing stateKind = iota
	stateReady
	stateDiscovering
	stateWaiting
	stateShutdown
)

func (k stateKind) String() string {
	switch k {
	case stateInitializing:
		return "Initializing"
	case stateReady:
		return "Ready"
	case stateDiscovering:
		return "Discovering"
	case stateWaiting:
		return "Waiting"
	case stateShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("stateKind(%d)", int(k))
	}
}

// state is a tagged union. Exactly the handler field matching kind is
// set; Initializing and Shutdown carry no handler data.
type state struct {
	kind        stateKind
	ready       *ready
	discovering *discovering
	waiting     *waiting
}

func initializingState() state {
	return state{kind: stateInitializing}
}

func readyState(dctx Context, prev *RoundInfo) state {
	return state{kind: stateReady, ready: newReady(dctx, prev)}
}

func discoveringState(dctx Context, params Params) state {
	return state{kind: stateDiscovering, discovering: newDiscovering(dctx, params)}
}

func waitingState(dctx Context, d time.Duration) state {
	return state{kind: stateWaiting, waiting: newWaiting(dctx, d)}
}

func shutdownState() state {
	return state{kind: stateShutdown}
}

func (s state) isShutdown() bool {
	return s.kind == stateShutdown
}

func (s state) String() string {
	if s.kind == stateWaiting && s.waiting != nil {
		return fmt.Sprintf("Waiting(%s)", s.waiting.duration)
	}
	return s.kind.String()
}

// eventKind tags the state event union.
type eventKind int

const (
	eventInitialized eventKind = iota
	eventBeginDiscovery
	eventReady
	eventIdle
	eventDiscoveryComplete
	eventErrored
	eventShutdown
)

// stateEvent is produced by exactly one state handler per loop iteration
// and consumed exactly once by the transition function.
type stateEvent struct {
	kind   eventKind
	params Params
	info   RoundInfo
	err    error
}

func initializedEvent() stateEvent {
	return stateEvent{kind: eventInitialized}
}

func beginDiscoveryEvent(params Params) stateEvent {
	return stateEvent{kind: eventBeginDiscovery, params: params}
}

func readyEvent() stateEvent {
	return stateEvent{kind: eventReady}
}

func idleEvent() stateEvent {
	return stateEvent{kind: eventIdle}
}

func discoveryCompleteEvent(info RoundInfo) stateEvent {
	return stateEvent{kind: eventDiscoveryComplete, info: info}
}

func erroredEvent(err error) stateEvent {
	return stateEvent{kind: eventErrored, err: err}
}

func shutdownEvent() stateEvent {
	return stateEvent{kind: eventShutdown}
}

func (e stateEvent) String() string {
	switch e.kind {
	case eventInitialized:
		return "Initialized"
	case eventBeginDiscovery:
		return fmt.Sprintf("BeginDiscovery(%s)", e.params)
	case eventReady:
		return "Ready"
	case eventIdle:
		return "Idle"
	case eventDiscoveryComplete:
		return fmt.Sprintf("DiscoveryComplete(%s)", e.info)
	case eventErrored:
		return fmt.Sprintf("Errored(%v)", e.err)
	case eventShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("stateEvent(%d)", int(e.kind))
	}
}
