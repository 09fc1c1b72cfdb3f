package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedlens/analytics-server/pkg/requestcache"
)

// Metrics holds the Prometheus instruments for the analytics server, backed
// by a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheStaleServes prometheus.Counter

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers all instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Total number of fresh analytics cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Total number of analytics cache misses",
		}),
		cacheStaleServes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_stale_serves_total",
			Help: "Total number of stale analytics entries served while revalidating",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"endpoint"}),
	}

	registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.cacheStaleServes,
		m.requestsTotal,
		m.requestDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// CacheObserver adapts the instruments to the request cache's observer hook.
func (m *Metrics) CacheObserver() func(requestcache.Event) {
	return func(e requestcache.Event) {
		switch e {
		case requestcache.EventHit:
			m.cacheHits.Inc()
		case requestcache.EventMiss:
			m.cacheMisses.Inc()
		case requestcache.EventStale:
			m.cacheStaleServes.Inc()
		}
	}
}

// Middleware records per-request counts and latency.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
