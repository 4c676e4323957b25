// Command nowplaying serves 1920x1080 "now playing" posters over HTTP.
//
// A request for /api/thumbnail/{id} returns the cached poster for the
// track if one exists. Otherwise the track's metadata is looked up, its
// cover art downloaded, and a poster composed over a blurred, darkened
// copy of the cover with a frosted panel, the rounded cover, the title,
// a source and view-count line, a progress bar and an icon strip. The
// poster is cached under CACHE_DIR and never invalidated.
//
// # Application Lifecycle
//
//  1. Environment: loads .env if present and sets GOMEMLIMIT from the
//     container limit.
//  2. Configuration: reads environment variables and prepares the cache
//     and database directories.
//  3. Ledger: opens the SQLite render ledger.
//  4. Renderer: builds the lookup client, downloader, fonts, composer and
//     memory monitor, with libvips if VIPS_ENABLED.
//  5. HTTP: registers routes and middleware and starts the API server
//     and, if enabled, the metrics server.
//  6. Shutdown: on SIGINT or SIGTERM drains both servers, then stops the
//     collector and renderer and closes the ledger.
//
// # Background Services
//
//   - Metrics collector: refreshes cache size and ledger gauges every minute.
//   - Memory monitor: holds back compositions while the heap is critical.
//   - Lookup memo: expires remembered lookups after LOOKUP_CACHE_TTL.
package main
