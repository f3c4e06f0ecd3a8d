package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Operation pipeline metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	AuthFailuresTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	// Verification key cache metrics
	KeyCacheHitsTotal      prometheus.Counter
	KeyCacheMissesTotal    prometheus.Counter
	KeyCacheRefreshesTotal prometheus.Counter
	KeyCacheEvictionsTotal prometheus.Counter

	// Redis read cache metrics
	ReadCacheHitsTotal   *prometheus.CounterVec
	ReadCacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confstore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_operations_total",
				Help: "Total number of service operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confstore_operation_duration_seconds",
				Help:    "Service operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_auth_failures_total",
				Help: "Total number of authentication and authorization failures",
			},
			[]string{"stage"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_store_operations_total",
				Help: "Total number of configuration store operations",
			},
			[]string{"operation", "backend"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confstore_store_operation_duration_seconds",
				Help:    "Configuration store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_store_errors_total",
				Help: "Total number of configuration store errors by kind",
			},
			[]string{"operation", "kind"},
		),
		KeyCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confstore_key_cache_hits_total",
				Help: "Total number of verification key cache hits",
			},
		),
		KeyCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confstore_key_cache_misses_total",
				Help: "Total number of verification key cache misses",
			},
		),
		KeyCacheRefreshesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confstore_key_cache_refreshes_total",
				Help: "Total number of background verification key refreshes",
			},
		),
		KeyCacheEvictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confstore_key_cache_evictions_total",
				Help: "Total number of verification key cache evictions",
			},
		),
		ReadCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_read_cache_hits_total",
				Help: "Total number of redis read cache hits",
			},
			[]string{"kind"},
		),
		ReadCacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confstore_read_cache_misses_total",
				Help: "Total number of redis read cache misses",
			},
			[]string{"kind"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confstore_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confstore_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OperationsTotal,
		m.OperationDuration,
		m.AuthFailuresTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.KeyCacheHitsTotal,
		m.KeyCacheMissesTotal,
		m.KeyCacheRefreshesTotal,
		m.KeyCacheEvictionsTotal,
		m.ReadCacheHitsTotal,
		m.ReadCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records metrics for a completed HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveOperation records metrics for a completed service operation
func (m *Metrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveStoreOperation records metrics for a backing store call
func (m *Metrics) ObserveStoreOperation(operation, backend string, duration time.Duration) {
	m.StoreOperationsTotal.WithLabelValues(operation, backend).Inc()
	m.StoreOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}
