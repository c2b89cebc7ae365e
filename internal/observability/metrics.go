// Package observability holds the Prometheus metrics for the scoring service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the webhook and scoring pipeline.
type Metrics struct {
	ReportsScored   *prometheus.CounterVec // label: tier
	AlertsSent      prometheus.Counter
	AlertFailures   prometheus.Counter
	WeatherFailures prometheus.Counter
	PersistFailures prometheus.Counter
	RoleAssignments *prometheus.CounterVec // label: outcome={promoted,default,failed}
	WebhookEvents   *prometheus.CounterVec // labels: table, outcome={handled,ignored,error}
}

func build() *Metrics {
	return &Metrics{
		ReportsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "reports_scored_total",
			Help:      "Reports classified, by resulting risk tier.",
		}, []string{"tier"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "alerts_sent_total",
			Help:      "SMS alerts accepted by the messaging provider.",
		}),
		AlertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "alert_failures_total",
			Help:      "SMS alert attempts that failed (logged and swallowed).",
		}),
		WeatherFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "weather_failures_total",
			Help:      "Weather lookups that degraded to a sentinel snapshot.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "persist_failures_total",
			Help:      "Assessment writes that failed (logged, not retried).",
		}),
		RoleAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "role_assignments_total",
			Help:      "Profile role assignments by outcome.",
		}, []string{"outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskwatch",
			Name:      "webhook_events_total",
			Help:      "Webhook events by table and handling outcome.",
		}, []string{"table", "outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.ReportsScored,
		m.AlertsSent,
		m.AlertFailures,
		m.WeatherFailures,
		m.PersistFailures,
		m.RoleAssignments,
		m.WebhookEvents,
	)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return build()
}
