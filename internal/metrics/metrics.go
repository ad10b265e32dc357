// Package metrics exposes solve statistics as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gosxcu"

// Collector records solve outcomes. It satisfies engine.Recorder.
type Collector struct {
	solves      *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	degenerate  prometheus.Counter
}

// New registers the solve collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Solves by mode and outcome.",
		}, []string{"mode", "outcome"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective evaluations spent by the minimizer.",
		}, []string{"mode"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time of a solve.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"mode"}),
		degenerate: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_mass_balance_total",
			Help:      "Stripping balances that fell back to an O/A of one.",
		}),
	}
}

// SolveFinished records one solve.
func (c *Collector) SolveFinished(mode, outcome string, evaluations int, elapsed time.Duration) {
	c.solves.WithLabelValues(mode, outcome).Inc()
	c.evaluations.WithLabelValues(mode).Add(float64(evaluations))
	c.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// DegenerateBalance records a stripping O/A fallback.
func (c *Collector) DegenerateBalance() {
	c.degenerate.Inc()
}

// WriteFile dumps every metric gathered by g in the text exposition format.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
