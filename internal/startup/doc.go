// Package startup loads configuration, assembles the render stack, and
// logs the application lifecycle.
//
// # Configuration
//
// [LoadConfig] reads environment variables, optionally seeded from a .env
// file by [LoadEnvFile]:
//
//   - CACHE_DIR: posters and scratch downloads (default: cache)
//   - ASSETS_DIR: fonts and icons (default: assets)
//   - TITLE_FONT, REGULAR_FONT, ICONS_FILE: asset paths under ASSETS_DIR
//   - LAYOUT_FILE: optional YAML geometry overrides
//   - DEFAULT_THUMB_URL: placeholder cover and fallback result
//   - SEARCH_API_URL, WATCH_URL_PREFIX: metadata lookup service
//   - SOURCE_LABEL: source name printed on the poster (default: YouTube)
//   - HTTP_TIMEOUT: per-attempt timeout for lookups and downloads (default: 15s)
//   - DOWNLOAD_RETRIES: cover download retries (default: 0)
//   - LOOKUP_CACHE_TTL: how long lookups are reused, 0 disables (default: 10m)
//   - RENDER_CONCURRENCY: simultaneous compositions (default: GOMAXPROCS, max 8)
//   - DATABASE_DIR: render ledger directory (default: <cache>/db)
//   - PORT, METRICS_PORT, METRICS_ENABLED: HTTP listeners
//   - VIPS_ENABLED: decode covers with libvips (default: false)
//   - LOG_LEVEL, LOG_HEALTH_CHECKS: logging
//
// The cache and database directories are created if missing and must be
// writable; LoadConfig fails otherwise.
//
// # Render Stack
//
// [NewStack] builds the lookup client, downloader, composer and
// [thumbnail.Renderer] from a Config. Both the server and the
// nowplaying-render CLI use it.
//
// # Build Information
//
// Version, Commit and BuildTime are set at build time:
//
//	go build -ldflags "-X nowplaying/internal/startup.Version=1.0.0 \
//	    -X nowplaying/internal/startup.Commit=$(git rev-parse HEAD) \
//	    -X nowplaying/internal/startup.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package startup
