package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics get their own registry so two servers in one process, as in
// tests, never fight over registration.
type metrics struct {
	registry *prometheus.Registry

	matchesCreated  prometheus.Counter
	matchesFinished prometheus.Counter
	actionsApplied  *prometheus.CounterVec
	actionsRejected *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ludo_matches_created_total",
			Help: "Matches created.",
		}),
		matchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ludo_matches_finished_total",
			Help: "Matches played to a win.",
		}),
		actionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ludo_actions_applied_total",
			Help: "Actions accepted by the rules engine.",
		}, []string{"type"}),
		actionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ludo_actions_rejected_total",
			Help: "Actions rejected by validation.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(m.matchesCreated, m.matchesFinished, m.actionsApplied, m.actionsRejected)
	return m
}
