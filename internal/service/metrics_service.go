package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
// A dedicated registry keeps the scrape output limited to what we register.
type MetricsService struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	cacheOps     *prometheus.CounterVec
}

// NewMetricsService builds the registry and registers all collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classhub_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_cache_operations_total",
		Help: "Cache operations by kind and result.",
	}, []string{"operation", "result"})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		cacheOps,
	)

	return &MetricsService{
		registry:     registry,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
		cacheOps:     cacheOps,
	}
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	s.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache hit, miss or write.
func (s *MetricsService) RecordCacheOperation(operation, result string) {
	s.cacheOps.WithLabelValues(operation, result).Inc()
}

// Handler exposes the scrape endpoint for this registry.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
