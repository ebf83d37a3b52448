// Package metrics provides Prometheus metrics for the typegait service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry so
// the default Go collectors do not leak into the scrape output.
type Metrics struct {
	registry *prometheus.Registry

	EnrollTotal      prometheus.Counter
	IdentifyTotal    prometheus.Counter
	IdentifyDuration prometheus.Histogram
	EnrolledUsers    prometheus.Gauge
	StoredSamples    prometheus.Gauge
}

// New creates the metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EnrollTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "typegait",
			Name:      "enroll_total",
			Help:      "Total enrollment samples accepted.",
		}),
		IdentifyTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "typegait",
			Name:      "identify_total",
			Help:      "Total identification queries served.",
		}),
		IdentifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "typegait",
			Name:      "identify_duration_seconds",
			Help:      "Latency of identification queries.",
			Buckets:   prometheus.DefBuckets,
		}),
		EnrolledUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "typegait",
			Name:      "enrolled_users",
			Help:      "Number of enrolled users.",
		}),
		StoredSamples: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "typegait",
			Name:      "stored_samples",
			Help:      "Number of stored feature samples.",
		}),
	}
}

// Handler returns the scrape endpoint handler for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
