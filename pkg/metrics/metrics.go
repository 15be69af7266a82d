// Package metrics exposes Prometheus collectors for the ingestion loop and the status server.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livefeed"

// otherLabel replaces request paths and methods outside the known set, keeping label cardinality bounded
const otherLabel = "other"

var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodOptions: true,
}

// Collector holds all livefeed metrics in its own registry
type Collector struct {
	registry        *prometheus.Registry
	sweeps          prometheus.Counter
	sweepDuration   prometheus.Histogram
	sweepSources    prometheus.Gauge
	sourceOutcomes  *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	routes          map[string]bool
}

// New constructs a collector and registers everything, including go and process collectors.
// Request metrics are labeled with the path only for routes listed here, everything else is "other".
func New(routes ...string) (*Collector, error) {
	c := &Collector{
		routes:   make(map[string]bool, len(routes)),
		registry: prometheus.NewRegistry(),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "sweeps_total",
			Help: "Total number of completed sweeps.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "sweep_duration_seconds",
			Help: "Duration of sweeps.", Buckets: prometheus.DefBuckets,
		}),
		sweepSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "registry_sources",
			Help: "Number of sources returned by the registry in the last sweep.",
		}),
		sourceOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "source_outcomes_total",
			Help: "Per-source sweep outcomes.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "delivery", Name: "items_total",
			Help: "Delivery attempts by source type, item kind and result.",
		}, []string{"source_type", "kind", "result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "fallbacks_total",
			Help: "Live fetches replaced with synthetic data.",
		}, []string{"source_type"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "Latency distribution for status server requests.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of status server requests.",
		}, []string{"method", "path", "status"}),
	}

	for _, r := range routes {
		c.routes[r] = true
	}

	for _, m := range []prometheus.Collector{
		c.sweeps, c.sweepDuration, c.sweepSources, c.sourceOutcomes, c.deliveries, c.fallbacks,
		c.requestDuration, c.requestTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// SweepCompleted records one finished sweep
func (c *Collector) SweepCompleted(duration time.Duration, sources int) {
	c.sweeps.Inc()
	c.sweepDuration.Observe(duration.Seconds())
	c.sweepSources.Set(float64(sources))
}

// SourceProcessed counts a per-source outcome, e.g. delivered or not-due
func (c *Collector) SourceProcessed(outcome string) {
	c.sourceOutcomes.WithLabelValues(outcome).Inc()
}

// DeliveryAttempted counts a single item delivery
func (c *Collector) DeliveryAttempted(sourceType, kind string, ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	c.deliveries.WithLabelValues(sourceType, kind, result).Inc()
}

// FallbackUsed counts a switch to synthetic data
func (c *Collector) FallbackUsed(sourceType string) {
	c.fallbacks.WithLabelValues(sourceType).Inc()
}

// Handler returns an HTTP handler exposing the registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next to record request metrics
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		method, path, status := c.requestLabels(r, rw.status)
		c.requestTotal.WithLabelValues(method, path, status).Inc()
		c.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	})
}

func (c *Collector) requestLabels(r *http.Request, status int) (method, path, code string) {
	method, path = r.Method, r.URL.Path
	if !knownMethods[method] {
		method = otherLabel
	}
	if !c.routes[path] {
		path = otherLabel
	}
	return method, path, strconv.Itoa(status)
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
