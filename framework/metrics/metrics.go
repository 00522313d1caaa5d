// Package metrics exposes bean container activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the container metrics on its own registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	BeansBuilt       *prometheus.CounterVec
	BuildFailures    *prometheus.CounterVec
	BuildDuration    *prometheus.HistogramVec
	SingletonsCached prometheus.Gauge
}

// New creates a collector whose metric names are prefixed with namespace
// (which may be empty).
func New(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	built := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "beans_built_total",
			Help:      "Beans constructed, by scope.",
		},
		[]string{"scope"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bean_build_failures_total",
			Help:      "Failed bean builds, by error kind.",
		},
		[]string{"kind"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bean_build_duration_seconds",
			Help:      "Time spent building a bean, including its init method.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"scope"},
	)
	cached := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beans_singletons_cached",
			Help:      "Singleton instances currently held by the container.",
		},
	)

	registry.MustRegister(built, failures, duration, cached)

	return &Collector{
		registry:         registry,
		BeansBuilt:       built,
		BuildFailures:    failures,
		BuildDuration:    duration,
		SingletonsCached: cached,
	}
}

// BeanBuilt records a successful build.
func (c *Collector) BeanBuilt(scope string, d time.Duration) {
	if c == nil {
		return
	}
	c.BeansBuilt.WithLabelValues(scope).Inc()
	c.BuildDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// BuildFailed records a failed build.
func (c *Collector) BuildFailed(kind string) {
	if c == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	c.BuildFailures.WithLabelValues(kind).Inc()
}

// SetSingletonsCached sets the singleton gauge.
func (c *Collector) SetSingletonsCached(n int) {
	if c == nil {
		return
	}
	c.SingletonsCached.Set(float64(n))
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
