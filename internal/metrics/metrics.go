package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoscatter",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoscatter",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Ingestion metrics
	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoscatter",
		Subsystem: "dataset",
		Name:      "ingest_runs_total",
		Help:      "Total dataset ingestions by outcome",
	}, []string{"dataset", "outcome"})

	IngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoscatter",
		Subsystem: "dataset",
		Name:      "ingest_duration_seconds",
		Help:      "Duration of fetch, parse and build of a dataset",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"dataset"})

	DatasetFeatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "geoscatter",
		Subsystem: "dataset",
		Name:      "features",
		Help:      "Features in the latest collection of a dataset",
	}, []string{"dataset"})

	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoscatter",
		Subsystem: "dataset",
		Name:      "records_dropped_total",
		Help:      "Records dropped for unusable coordinates",
	}, []string{"dataset"})

	// Viewer metrics
	ActiveViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoscatter",
		Subsystem: "viewer",
		Name:      "active",
		Help:      "Current number of live viewer sessions",
	})

	// Source cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoscatter",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total source cache hits",
	}, []string{"key"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoscatter",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total source cache misses",
	}, []string{"key"})
)

// Middleware records request metrics
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus /metrics endpoint
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
