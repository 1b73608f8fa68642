// Package metrics provides Prometheus metrics for the journal service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the journal service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Journal store metrics
	JournalOperationsTotal *prometheus.CounterVec
	HistoryPrunedTotal     prometheus.Counter
	RecoveriesTotal        *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JournalOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clarify_journal_operations_total",
				Help: "Total number of journal store operations",
			},
			[]string{"operation", "status"},
		),
		HistoryPrunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clarify_journal_history_pruned_total",
				Help: "Total number of history records discarded by the retention policy",
			},
		),
		RecoveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clarify_journal_recoveries_total",
				Help: "Total number of unreadable journal tables replaced by an empty baseline",
			},
			[]string{"table"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clarify_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clarify_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.JournalOperationsTotal,
		m.HistoryPrunedTotal,
		m.RecoveriesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// RecordOperation records the outcome of a journal store operation.
func (m *Metrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JournalOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPruned records history records dropped by retention.
func (m *Metrics) RecordPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.HistoryPrunedTotal.Add(float64(n))
}

// RecordRecovery records a fail-soft read of a corrupt or unreadable table.
func (m *Metrics) RecordRecovery(table string) {
	if m == nil {
		return
	}
	m.RecoveriesTotal.WithLabelValues(table).Inc()
}
