package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry            *prometheus.Registry
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	CatalogReads        *prometheus.CounterVec
	CatalogReadDuration *prometheus.HistogramVec
	SearchQueries       *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	catalogReads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reads_total",
			Help: "Storage reads issued by the catalog service.",
		},
		[]string{"category", "outcome"},
	)
	catalogReadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_read_duration_seconds",
			Help:    "Latency of catalog storage reads.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)
	searchQueries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Fuzzy search queries by source and cache outcome.",
		},
		[]string{"source", "cache"},
	)

	registry.MustRegister(
		httpRequests, httpDuration, catalogReads, catalogReadDuration, searchQueries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequests:        httpRequests,
		HTTPDuration:        httpDuration,
		CatalogReads:        catalogReads,
		CatalogReadDuration: catalogReadDuration,
		SearchQueries:       searchQueries,
	}
}

// ObserveRead records one catalog read.
func (m *Metrics) ObserveRead(category, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.CatalogReads.WithLabelValues(category, outcome).Inc()
	m.CatalogReadDuration.WithLabelValues(category).Observe(took.Seconds())
}

// ObserveSearch records one search query.
func (m *Metrics) ObserveSearch(source string, cached bool) {
	if m == nil {
		return
	}
	cache := "miss"
	if cached {
		cache = "hit"
	}
	m.SearchQueries.WithLabelValues(source, cache).Inc()
}

// Middleware counts requests by matched route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
