// Package metrics provides Prometheus metrics for clause evaluation.
package metrics

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Evaluation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNoClauses    = "no_clauses"
	OutcomeFailed       = "failed"
)

// Manager owns the evaluation collectors and the registry they live on.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	evaluations        *prometheus.CounterVec
	clauses            *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	taxonomyEntries    prometheus.Gauge
	fallbackActive     prometheus.Gauge
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the duration histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry registers collectors on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a Manager on a private registry, so Go runtime
// collectors are not exported unless the caller's registry adds them.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "covenant",
		histogramBuckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.evaluations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "evaluations_total",
			Help:      "Contract evaluations by classification mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	m.clauses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "clauses_total",
			Help:      "Clauses classified, by assigned risk level",
		},
		[]string{"risk"},
	)

	m.evaluationDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one contract",
			Buckets:   m.histogramBuckets,
		},
		[]string{"mode"},
	)

	m.taxonomyEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "taxonomy_entries",
		Help:      "Entries in the loaded risk taxonomy",
	})

	m.fallbackActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "fallback_active",
		Help:      "1 when clauses are classified by keyword rules instead of embeddings",
	})
}

// ObserveEvaluation counts one evaluation and records its duration.
func (m *Manager) ObserveEvaluation(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(mode, outcome).Inc()
	m.evaluationDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddClause counts one classified clause at the given risk level.
func (m *Manager) AddClause(risk string) {
	if m == nil {
		return
	}
	m.clauses.WithLabelValues(risk).Inc()
}

// SetTaxonomyEntries records the size of the loaded taxonomy.
func (m *Manager) SetTaxonomyEntries(n int) {
	if m == nil {
		return
	}
	m.taxonomyEntries.Set(float64(n))
}

// SetFallbackActive records whether the keyword fallback is in use.
func (m *Manager) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.fallbackActive.Set(v)
}

// Registry returns the registry holding the collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every gathered metric family to w in text format.
func (m *Manager) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
