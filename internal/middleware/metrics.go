package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"nowplaying/internal/metrics"
)

// MetricsConfig selects which requests are recorded.
type MetricsConfig struct {
	// SkipPaths are path prefixes left out of the request series.
	SkipPaths []string
}

// DefaultMetricsConfig leaves out scrapes and health checks, which would
// otherwise dwarf poster traffic.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: append([]string{"/metrics"}, lo.Keys(healthPaths)...),
	}
}

func (c MetricsConfig) skips(path string) bool {
	return lo.ContainsBy(c.SkipPaths, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// Metrics records request count, latency and body size. Registered with
// mux.Router.Use it labels requests by route template, so every poster
// shares the "/api/thumbnail/{id}" series.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skips(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseBytes.WithLabelValues(r.Method, route).Observe(float64(rec.written))
		})
	}
}

// routeLabel is the matched route template, or the normalized path when no
// route matched.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath keeps the first two segments of an unmatched path and folds
// the rest into "{path}", bounding label cardinality.
func normalizePath(path string) string {
	parts := strings.SplitN(path, "/", 4)
	if len(parts) < 4 {
		return path
	}
	return strings.Join(parts[:3], "/") + "/{path}"
}
