package server

import (
	"net/http"
	"time"

	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server owns its
// registry, so tests can build as many servers as they like.
type Metrics struct {
	registry *prometheus.Registry

	// scoresTotal counts scored postings by level and confidence
	scoresTotal *prometheus.CounterVec

	// scoreValue tracks the distribution of authenticity scores
	scoreValue prometheus.Histogram

	// ruleActivations counts matched rules by id
	ruleActivations *prometheus.CounterVec

	// scoreDuration tracks latency of single scoring calls
	scoreDuration prometheus.Histogram

	// requestsTotal counts HTTP requests by route and status code
	requestsTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scoresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrust_scores_total",
				Help: "Total number of scored postings by level and confidence",
			},
			[]string{"level", "confidence"},
		),
		scoreValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobtrust_score_value",
				Help:    "Distribution of authenticity scores (0-100)",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		ruleActivations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrust_rule_activations_total",
				Help: "Total number of rule activations by rule id",
			},
			[]string{"rule"},
		),
		scoreDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobtrust_score_duration_seconds",
				Help:    "Duration of scoring calls in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrust_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveResult records metrics from a completed scoring call.
// Cached results are counted but their activations are not re-counted.
// A zero elapsed time skips the latency histogram.
func (m *Metrics) ObserveResult(res model.ScoreResult, cached bool, elapsed time.Duration) {
	m.scoresTotal.WithLabelValues(string(res.Level), string(res.Confidence)).Inc()
	m.scoreValue.Observe(res.Score)
	if elapsed > 0 {
		m.scoreDuration.Observe(elapsed.Seconds())
	}

	if cached {
		return
	}
	for _, a := range res.ActivatedRules {
		m.ruleActivations.WithLabelValues(a.ID).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
