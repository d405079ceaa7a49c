package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	// RoundsTotal counts completed discovery rounds by outcome.
	RoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cordmesh",
			Name:      "discovery_rounds_total",
			Help:      "Total number of completed discovery rounds.",
		},
		[]string{"outcome"},
	)

	// StateTransitions counts entries into each discovery state.
	StateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cordmesh",
			Name:      "discovery_state_transitions_total",
			Help:      "Total number of discovery state machine transitions, by destination state.",
		},
		[]string{"state"},
	)

	// PeersAdded counts new peers merged into the registry via discovery.
	PeersAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cordmesh",
			Name:      "discovery_peers_added_total",
			Help:      "Total number of new peers learned through discovery rounds.",
		},
	)

	// Errors counts errors surfaced to the discovery state machine.
	Errors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cordmesh",
			Name:      "discovery_errors_total",
			Help:      "Total number of errors observed by the discovery state machine.",
		},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "cordmesh",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(RoundsTotal, StateTransitions, PeersAdded, Errors, uptime)
}

// MetricsHandler exposes /metrics. Mount it with
// mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
