package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics bündelt alle Prometheus-Kollektoren des Dashboards.
type Metrics struct {
	ListFetches          *prometheus.CounterVec
	OperationInvocations *prometheus.CounterVec
	BackendLatency       *prometheus.HistogramVec
	BackendUp            prometheus.Gauge
	ActiveSessions       prometheus.Gauge
}

// NewMetrics erstellt die Kollektoren und registriert sie bei reg (nil = nicht registrieren).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ListFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_list_fetches_total",
			Help: "Total number of resource list fetches by resource and outcome.",
		}, []string{"resource", "outcome"}),
		OperationInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_operation_invocations_total",
			Help: "Total number of console operation invocations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_backend_request_duration_seconds",
			Help:    "Latency of WHO backend calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
		BackendUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_backend_up",
			Help: "1 if the last WHO backend health probe succeeded.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Number of console sessions currently held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ListFetches, m.OperationInvocations, m.BackendLatency, m.BackendUp, m.ActiveSessions)
	}
	return m
}
