// Package metrics exposes Prometheus counters for the synchronization
// core. Collectors are created per Metrics value and registered on a
// caller-supplied registry so tests never share state.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the core's collectors.
type Metrics struct {
	ReconnectAttempts prometheus.Counter
	EventsByType      *prometheus.CounterVec
	RefreshesByView   *prometheus.CounterVec
	RefreshFailures   *prometheus.CounterVec
	StaleDiscarded    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration, which is handy for throwaway instances in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tallybook_reconnect_attempts_total",
			Help: "Push-channel connection attempts, including the first.",
		}),
		EventsByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tallybook_push_events_total",
			Help: "Push-channel events received, by event type.",
		}, []string{"type"}),
		RefreshesByView: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tallybook_view_refreshes_total",
			Help: "View refreshes triggered, by view.",
		}, []string{"view"}),
		RefreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tallybook_view_refresh_failures_total",
			Help: "View refreshes that failed, by view.",
		}, []string{"view"}),
		StaleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tallybook_stale_results_discarded_total",
			Help: "Refresh completions discarded because a newer refresh superseded them.",
		}, []string{"view"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ReconnectAttempts,
			m.EventsByType,
			m.RefreshesByView,
			m.RefreshFailures,
			m.StaleDiscarded,
		)
	}
	return m
}
