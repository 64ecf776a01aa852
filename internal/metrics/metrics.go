// Package metrics holds the prometheus collectors for the meal and ledger pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nutrilog"

// Ledger operations, used as the "op" label.
const (
	LedgerIncrement = "increment"
	LedgerDelta     = "delta"
	LedgerRecreate  = "recreate"
)

type Metrics struct {
	mealsRecorded      *prometheus.CounterVec
	ledgerOps          *prometheus.CounterVec
	missingMacros      prometheus.Counter
	suggestionFailures prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mealsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_recorded_total",
			Help:      "Meals created, by how their totals were obtained.",
		}, []string{"created_via"}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Nutrition log mutations, by operation.",
		}, []string{"op"}),
		missingMacros: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_macro_warnings_total",
			Help:      "Line items counted as zero because the food has no macro profile.",
		}),
		suggestionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_failures_total",
			Help:      "AI suggestion calls that failed and returned a degraded response.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.mealsRecorded, m.ledgerOps, m.missingMacros, m.suggestionFailures, m.requestDuration)
	return m
}

// The recorders below accept a nil receiver so callers can run without metrics.

func (m *Metrics) MealRecorded(createdVia string) {
	if m == nil {
		return
	}
	m.mealsRecorded.WithLabelValues(createdVia).Inc()
}

func (m *Metrics) LedgerOp(op string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(op).Inc()
}

func (m *Metrics) MissingMacros(n int) {
	if m == nil || n == 0 {
		return
	}
	m.missingMacros.Add(float64(n))
}

func (m *Metrics) SuggestionFailed() {
	if m == nil {
		return
	}
	m.suggestionFailures.Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
