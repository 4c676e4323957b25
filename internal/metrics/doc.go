// Package metrics provides Prometheus instrumentation for the now-playing
// renderer.
//
// All metrics are prefixed with "nowplaying_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Render Metrics
//   - RendersTotal: Counter of renders by outcome (cached/rendered/fallback/error)
//   - RenderDuration: Histogram of full pipeline duration by outcome
//   - RenderPhaseDuration: Histogram of pipeline phases (lookup/download/compose/encode)
//   - RendersInFlight: Gauge of pipelines currently running
//   - RenderCoalesced: Counter of renders that joined an in-flight render
//   - CacheHits / CacheMisses: Poster cache lookups
//   - LookupsTotal: Counter of metadata lookups by result
//   - DownloadsTotal: Counter of cover downloads by result
//
// ## Cache and Ledger Metrics
//   - CacheSizeBytes / CacheFiles: Gauges refreshed by the [Collector]
//   - LedgerRendersTotal: Gauge of ledger rows by kind
//
// ## Database Metrics
//   - DBQueryTotal / DBQueryDuration: ledger query accounting
//
// # Usage
//
//	metrics.RendersTotal.WithLabelValues("rendered").Inc()
//
// Thumbnail cache hit rate:
//
//	rate(nowplaying_cache_hits_total[5m]) /
//	(rate(nowplaying_cache_hits_total[5m]) + rate(nowplaying_cache_misses_total[5m]))
package metrics
