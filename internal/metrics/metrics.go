// Package metrics exposes Prometheus counters for played runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rounds   *prometheus.CounterVec
	runs     prometheus.Counter
	payments *prometheus.CounterVec
	resets   prometheus.Counter
	sessions prometheus.Gauge
	level    prometheus.Histogram
}

// New creates the collectors on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memory",
			Name:      "rounds_total",
			Help:      "Rounds evaluated, by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memory",
			Name:      "runs_completed_total",
			Help:      "Runs that ended with no lives left.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memory",
			Name:      "continue_payments_total",
			Help:      "Continue payments, by result.",
		}, []string{"result"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memory",
			Name:      "pattern_resets_total",
			Help:      "Patterns replaced with the once-per-round reset.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memory",
			Name:      "active_sessions",
			Help:      "Sessions currently running.",
		}),
		level: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "memory",
			Name:      "run_final_level",
			Help:      "Level reached when a run ended.",
			Buckets:   []float64{1, 2, 3, 5, 8, 12, 16, 20, 30},
		}),
	}
	m.registry.MustRegister(
		m.rounds, m.runs, m.payments, m.resets, m.sessions, m.level,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RoundEvaluated(outcome string) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RunCompleted(level int) {
	if m == nil {
		return
	}
	m.runs.Inc()
	m.level.Observe(float64(level))
}

// PaymentResult counts a continue payment; result is "success" or a short
// failure reason.
func (m *Metrics) PaymentResult(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *Metrics) ResetUsed() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}
