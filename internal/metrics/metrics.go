// Package metrics holds the Prometheus collectors of the annotation worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "annotator"

// Metrics records pipeline runs. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec // By status
	runDuration prometheus.Histogram
	tiers       *prometheus.CounterVec // By keyword tier
	fallbacks   *prometheus.CounterVec // By refinement kind
	documents   prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Annotation runs by outcome",
		}, []string{"status"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one annotation run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		tiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyword_tier_total",
			Help:      "Keyword extractions by the tier that produced the result",
		}, []string{"tier"}),

		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_fallbacks_total",
			Help:      "Refinements that kept the draft after exhausting retries",
		}, []string{"kind"}),

		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents extracted and annotated",
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.runDuration, m.tiers, m.fallbacks, m.documents} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// RunFinished records one run with status "success" or "error".
func (m *Metrics) RunFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// KeywordTier counts the tier of one keyword extraction.
func (m *Metrics) KeywordTier(tier string) {
	if m != nil {
		m.tiers.WithLabelValues(tier).Inc()
	}
}

// RefinementFallback counts a kept draft.
func (m *Metrics) RefinementFallback(kind string) {
	if m != nil {
		m.fallbacks.WithLabelValues(kind).Inc()
	}
}

// DocumentsProcessed adds n processed documents.
func (m *Metrics) DocumentsProcessed(n int) {
	if m != nil {
		m.documents.Add(float64(n))
	}
}
