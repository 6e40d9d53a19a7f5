// Package metrics exposes prometheus instrumentation for the transaction
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	TransactionsSubmitted *prometheus.CounterVec
	TransactionsDecided   *prometheus.CounterVec
	PolicyOutcomes        *prometheus.CounterVec
	Reversals             prometheus.Counter
	ProcessingDuration    *prometheus.HistogramVec
	PendingApprovals      prometheus.Gauge
	CacheLookups          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TransactionsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_transactions_submitted_total",
			Help: "Transactions submitted, by type and resulting status.",
		}, []string{"type", "status"}),
		TransactionsDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_transactions_decided_total",
			Help: "Approval decisions recorded, by outcome.",
		}, []string{"outcome"}),
		PolicyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_policy_outcomes_total",
			Help: "Policy evaluation outcomes, by outcome and rule reason.",
		}, []string{"outcome"}),
		Reversals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_reversals_total",
			Help: "Completed reversals.",
		}),
		ProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankcore_transaction_processing_seconds",
			Help:    "Wall time spent processing a transaction submission.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		PendingApprovals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bankcore_pending_approvals",
			Help: "Transactions currently awaiting an approval decision.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bankcore_balance_cache_lookups_total",
			Help: "Balance cache lookups, by result (hit or miss).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TransactionsSubmitted,
		m.TransactionsDecided,
		m.PolicyOutcomes,
		m.Reversals,
		m.ProcessingDuration,
		m.PendingApprovals,
		m.CacheLookups,
	)
	return m
}

// Handler serves the scrape endpoint for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
