// Package metrics exposes prometheus collectors for stock mutations and HTTP
// requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockcore/internal/domain/inventory"
)

var _ inventory.Observer = (*Metrics)(nil)

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcore",
			Name:      "stock_mutations_total",
			Help:      "Stock mutations by operation and outcome (ok or error code).",
		}, []string{"op", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockcore",
			Name:      "stock_mutation_duration_seconds",
			Help:      "Stock mutation latency including lock wait.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcore",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockcore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.mutations, m.mutationDuration, m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveMutation implements inventory.Observer.
func (m *Metrics) ObserveMutation(op, outcome string, elapsed time.Duration) {
	m.mutations.WithLabelValues(op, outcome).Inc()
	m.mutationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Middleware records every request. Unmatched routes share one label.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PoolGauges is a reading of a database connection pool.
type PoolGauges struct {
	Total, Acquired, Idle, Max int32
}

// WatchPool exports pool gauges read on every scrape. Call it once.
func (m *Metrics) WatchPool(read func() PoolGauges) {
	gauge := func(name, help string, pick func(PoolGauges) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "stockcore",
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(read())) })
	}
	m.registry.MustRegister(
		gauge("total_conns", "Open connections.", func(g PoolGauges) int32 { return g.Total }),
		gauge("acquired_conns", "Connections in use.", func(g PoolGauges) int32 { return g.Acquired }),
		gauge("idle_conns", "Idle connections.", func(g PoolGauges) int32 { return g.Idle }),
		gauge("max_conns", "Pool size limit.", func(g PoolGauges) int32 { return g.Max }),
	)
}
