package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels the result of one Generate call.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeMalformed      Outcome = Outcome(ReasonMalformed)
	OutcomeSchemaMismatch Outcome = Outcome(ReasonSchemaMismatch)
	OutcomeUpstreamError  Outcome = "upstream_error"
)

var allOutcomes = []Outcome{OutcomeOK, OutcomeMalformed, OutcomeSchemaMismatch, OutcomeUpstreamError}

// Metrics counts extraction outcomes. Degraded results look identical to
// callers, so this is where they can be told apart.
type Metrics struct {
	extractions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the extraction collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notegraph",
			Name:      "extractions_total",
			Help:      "Graph extractions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notegraph",
			Name:      "extraction_duration_seconds",
			Help:      "Time spent in one extraction, including the completion call.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
	}
	reg.MustRegister(m.extractions, m.duration)
	for _, o := range allOutcomes {
		m.extractions.WithLabelValues(string(o))
	}
	return m
}

func (m *Metrics) observe(o Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(string(o)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
