package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the monitor loop. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Cycles        prometheus.Counter
	CycleErrors   *prometheus.CounterVec
	Posts         *prometheus.CounterVec
	DegradedPools prometheus.Counter
	Active        prometheus.Gauge
	Universe      prometheus.Gauge
	CycleDuration prometheus.Histogram
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lpsentinel_cycles_total",
			Help: "Total number of monitor cycles run",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lpsentinel_cycle_errors_total",
			Help: "Cycle failures by stage",
		}, []string{"stage"}),
		Posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lpsentinel_posts_total",
			Help: "Recommendation posts delivered by trigger",
		}, []string{"trigger"}),
		DegradedPools: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lpsentinel_degraded_pools_total",
			Help: "Tracked pools that failed a health check",
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lpsentinel_active_recommendations",
			Help: "Pools currently under monitoring",
		}),
		Universe: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lpsentinel_universe_size",
			Help: "Pools returned by the last successful fetch",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lpsentinel_cycle_duration_seconds",
			Help:    "Wall time of one monitor cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	m.registry.MustRegister(
		m.Cycles,
		m.CycleErrors,
		m.Posts,
		m.DegradedPools,
		m.Active,
		m.Universe,
		m.CycleDuration,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CycleError(stage string) {
	if m == nil {
		return
	}
	m.CycleErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) Posted(trigger string) {
	if m == nil {
		return
	}
	m.Posts.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Degraded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DegradedPools.Add(float64(n))
}

func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.Active.Set(float64(n))
}

func (m *Metrics) SetUniverse(n int) {
	if m == nil {
		return
	}
	m.Universe.Set(float64(n))
}
