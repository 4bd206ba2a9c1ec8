// Package metrics exposes request outcomes and fetch timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

const namespace = "tokgrabba"

// Collector holds the service's metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	reapedFiles   prometheus.Counter
	inflight      prometheus.Gauge
}

// New creates a Collector with its own registry, including Go runtime and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Inbound link requests by terminal outcome and failure reason.",
		}, []string{"outcome", "reason"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of yt-dlp runs.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
		}, []string{"result"}),
		reapedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaped_files_total",
			Help:      "Stale scratch files removed by the reaper.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Requests currently being processed.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.fetchDuration,
		c.reapedFiles,
		c.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler returns an HTTP handler that serves the registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// WatchQueue exports depth as the update queue gauge, read on each scrape.
// Call it once.
func (c *Collector) WatchQueue(depth func() int) {
	if c == nil || depth == nil {
		return
	}
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queued_updates",
		Help:      "Chat updates waiting for a worker.",
	}, func() float64 { return float64(depth()) }))
}

// RecordOutcome counts one finished request.
func (c *Collector) RecordOutcome(outcome domain.Outcome, reason domain.FailureReason) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(outcome.String(), reason.String()).Inc()
}

// ObserveFetch records how long a fetch ran. result is "ok" or a failure reason.
func (c *Collector) ObserveFetch(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// AddReaped counts files removed by the reaper.
func (c *Collector) AddReaped(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.reapedFiles.Add(float64(n))
}

// TrackInflight increments the in-flight gauge and returns a func that
// decrements it.
func (c *Collector) TrackInflight() func() {
	if c == nil {
		return func() {}
	}
	c.inflight.Inc()
	return c.inflight.Dec
}
