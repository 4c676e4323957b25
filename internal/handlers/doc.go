// Package handlers implements the HTTP API.
//
// # Endpoints
//
//   - GET /api/thumbnail/{id}: the poster for a track. Cached and freshly
//     rendered posters are served as image/png; when the cover could not
//     be downloaded the response is a 302 to the default thumbnail. The
//     X-Render-Outcome header carries cached, rendered or fallback.
//   - GET /api/renders: recent renders from the ledger, newest first
//     (?limit=, default 50, max 500).
//   - GET /api/renders/{id}: the ledger record for one track.
//   - GET /health, /healthz: status with uptime and ledger counts.
//   - GET /livez: liveness, always 200 while the process serves.
//   - GET /readyz: 200 when the ledger answers and the cache is writable.
//   - GET /version: build information.
//
// Errors are JSON objects of the form {"error": "..."}.
package handlers
