package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "siegeschema"

// metrics uses its own registry so that several servers can live in one process.
type metrics struct {
	registry        *prometheus.Registry
	samplesAccepted prometheus.Counter
	samplesRejected prometheus.Counter
	builders        prometheus.Gauge
	evictions       prometheus.Counter
	requests        *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		samplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "samples_accepted_total",
			Help:      "Samples folded into a builder.",
		}),
		samplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "samples_rejected_total",
			Help:      "Sample uploads rejected as malformed or not objects.",
		}),
		builders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "builders",
			Help:      "Live builders.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builder_evictions_total",
			Help:      "Builders dropped to stay under the configured limit.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(m.samplesAccepted, m.samplesRejected, m.builders, m.evictions, m.requests)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
