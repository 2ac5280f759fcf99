package monitoring

import (
	"runtime"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Service name for metrics
	ServiceName = "tripmcp"
)

var (
	// MCP request metrics
	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_mcp_requests_total",
			Help: "Total number of MCP requests processed",
		},
		[]string{"tool", "status"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripmcp_mcp_request_duration_seconds",
			Help:    "MCP request duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"tool"},
	)

	// REST request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_http_requests_total",
			Help: "Total number of REST API requests",
		},
		[]string{"method", "route", "status"},
	)

	// Trip planning metrics
	RoutesSynthesized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_routes_synthesized_total",
			Help: "Total number of candidate routes synthesized",
		},
		[]string{"mode"},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_searches_total",
			Help: "Total number of route searches",
		},
		[]string{"city", "status"},
	)

	RefineResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripmcp_refine_results",
			Help:    "Number of routes left after filtering",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 11},
		},
		[]string{"sort_key"},
	)

	// Rate limiting metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"service"},
	)

	// Search cache metrics
	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmcp_search_cache_hits_total",
			Help: "Total number of stored search lookups that found the search",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmcp_search_cache_misses_total",
			Help: "Total number of stored search lookups that missed",
		},
	)

	SearchCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripmcp_search_cache_size",
			Help: "Current number of stored searches",
		},
	)

	// Connection metrics
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripmcp_active_connections",
			Help: "Number of active connections",
		},
		[]string{"transport", "type"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmcp_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripmcp_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit", "build_date"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripmcp_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripmcp_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)

	GCRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripmcp_gc_runs_total",
			Help: "Total number of garbage collection runs",
		},
	)
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Helper functions for common metric updates
func RecordMCPRequest(tool string, duration time.Duration, success bool) {
	MCPRequestsTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	MCPRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, route string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordSearch counts a route search and, on success, the routes it produced per mode
func RecordSearch(city string, modes []string, success bool) {
	if city == "" {
		city = "unknown"
	}
	SearchesTotal.WithLabelValues(city, statusLabel(success)).Inc()
	for _, m := range modes {
		RoutesSynthesized.WithLabelValues(m).Inc()
	}
}

func RecordRefine(sortKey string, results int) {
	RefineResults.WithLabelValues(sortKey).Observe(float64(results))
}

func RecordSearchCacheHit() {
	SearchCacheHits.Inc()
}

func RecordSearchCacheMiss() {
	SearchCacheMisses.Inc()
}

func UpdateSearchCacheSize(size int) {
	SearchCacheSize.Set(float64(size))
}

func RecordRateLimitExceeded(service string) {
	RateLimitExceeded.WithLabelValues(service).Inc()
}

func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func UpdateActiveConnections(transport, connType string, count int) {
	ActiveConnections.WithLabelValues(transport, connType).Set(float64(count))
}

// UpdateRuntimeMetrics refreshes the goroutine, memory and build info gauges
func UpdateRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoRoutines.Set(float64(runtime.NumGoroutine()))
	MemoryUsage.Set(float64(m.Alloc))
	GCRuns.Set(float64(m.NumGC))

	info := version.Info()
	SystemInfo.WithLabelValues(
		info["version"],
		info["go_version"],
		info["commit"],
		info["build_date"],
	).Set(1)
}
