// Package metrics exposes the client's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's collectors. All fields are safe for
// concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	RPCCalls        *prometheus.CounterVec
	RPCFailures     *prometheus.CounterVec
	AwardsSubmitted prometheus.Counter
	AwardsFailed    prometheus.Counter
	NotifyDropped   prometheus.Counter
	SessionChanges  prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RPCCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastapp_rpc_calls_total",
			Help: "Total number of backend calls by operation",
		}, []string{"operation"}),
		RPCFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastapp_rpc_failures_total",
			Help: "Total number of failed backend calls by operation",
		}, []string{"operation"}),
		AwardsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastapp_awards_submitted_total",
			Help: "Total number of successfully submitted awards",
		}),
		AwardsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastapp_awards_failed_total",
			Help: "Total number of failed award submissions",
		}),
		NotifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastapp_award_notifications_dropped_total",
			Help: "Total number of award notifications that failed to send",
		}),
		SessionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roastapp_session_changes_total",
			Help: "Total number of session change events observed",
		}),
	}

	reg.MustRegister(
		m.RPCCalls,
		m.RPCFailures,
		m.AwardsSubmitted,
		m.AwardsFailed,
		m.NotifyDropped,
		m.SessionChanges,
	)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
