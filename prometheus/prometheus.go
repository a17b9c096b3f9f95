// Package prometheus exports gateway metrics in the Prometheus exposition
// format.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	cgin "github.com/fwojciec/codecanvas/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codecanvas"

// Interface compliance check.
var _ cgin.Metrics = (*Metrics)(nil)

// Metrics implements gin.Metrics on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fragments   prometheus.Counter
	bytes       prometheus.Counter
	failures    *prometheus.CounterVec
	disconnects *prometheus.CounterVec
}

// New creates Metrics with the Go runtime and process collectors
// registered alongside the gateway's own.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Generation requests by route and status code.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request to last byte, by route.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"route"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_fragments_total",
			Help:      "Text fragments relayed to explain clients.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_bytes_total",
			Help:      "Bytes of text relayed to explain clients.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Upstream generation failures by route and phase.",
		}, []string{"route", "phase"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_disconnects_total",
			Help:      "Streams ended because the client went away.",
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.fragments,
		m.bytes,
		m.failures,
		m.disconnects,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveStream(fragments, bytes int) {
	m.fragments.Add(float64(fragments))
	m.bytes.Add(float64(bytes))
}

func (m *Metrics) UpstreamFailure(route, phase string) {
	m.failures.WithLabelValues(route, phase).Inc()
}

func (m *Metrics) ClientDisconnect(route string) {
	m.disconnects.WithLabelValues(route).Inc()
}
