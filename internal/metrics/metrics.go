package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nowplaying_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPResponseBytes is dominated by posters, which run from a few
	// hundred KiB to a few MiB.
	HTTPResponseBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nowplaying_http_response_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Render metrics
var (
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_renders_total",
			Help: "Total number of poster render requests by outcome",
		},
		[]string{"outcome"}, // "cached", "rendered", "fallback", "error"
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nowplaying_render_duration_seconds",
			Help:    "Poster render duration in seconds",
			Buckets: []float64{0.005, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	RenderPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nowplaying_render_phase_duration_seconds",
			Help:    "Duration of individual render pipeline phases in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"}, // "lookup", "download", "compose", "encode"
	)

	RendersInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_renders_in_flight",
			Help: "Number of render pipelines currently running",
		},
	)

	RenderCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nowplaying_render_coalesced_total",
			Help: "Total number of render calls that shared a pipeline with a concurrent call for the same identifier",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nowplaying_cache_hits_total",
			Help: "Total number of poster cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nowplaying_cache_misses_total",
			Help: "Total number of poster cache misses",
		},
	)

	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_lookups_total",
			Help: "Total number of metadata lookups by result",
		},
		[]string{"result"}, // "success", "placeholder", "memo"
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_downloads_total",
			Help: "Total number of cover downloads by result",
		},
		[]string{"result"}, // "success", "http_error", "error"
	)
)

// Cache and ledger metrics
var (
	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_cache_size_bytes",
			Help: "Total size of rendered posters in the cache directory",
		},
	)

	CacheFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_cache_files",
			Help: "Number of rendered posters in the cache directory",
		},
	)

	LedgerRendersTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nowplaying_ledger_renders",
			Help: "Number of renders recorded in the ledger by kind",
		},
		[]string{"kind"}, // "all", "placeholder", "live"
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_db_queries_total",
			Help: "Total number of ledger database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nowplaying_db_query_duration_seconds",
			Help:    "Ledger database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale handle errors",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_memory_paused",
			Help: "Whether compositions are paused for memory pressure (1) or not (0)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nowplaying_memory_gc_pauses_total",
			Help: "Total number of times compositions were paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nowplaying_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// InitializeMetrics pre-populates label combinations so every series is
// exported from the first scrape.
func InitializeMetrics() {
	for _, outcome := range []string{"cached", "rendered", "fallback", "error"} {
		RendersTotal.WithLabelValues(outcome)
		RenderDuration.WithLabelValues(outcome)
	}
	for _, phase := range []string{"lookup", "download", "compose", "encode"} {
		RenderPhaseDuration.WithLabelValues(phase)
	}
	for _, result := range []string{"success", "placeholder", "memo"} {
		LookupsTotal.WithLabelValues(result)
	}
	for _, result := range []string{"success", "http_error", "error"} {
		DownloadsTotal.WithLabelValues(result)
	}
	for _, kind := range []string{"all", "placeholder", "live"} {
		LedgerRendersTotal.WithLabelValues(kind)
	}
	for _, op := range []string{"initialize_schema", "record_render", "get_render", "list_renders", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
