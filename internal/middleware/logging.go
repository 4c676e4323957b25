package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"nowplaying/internal/logging"
)

// renderOutcomeHeader is set by the poster handler; the access log reports it.
const renderOutcomeHeader = "X-Render-Outcome"

// statusRecorder remembers the status and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	sent    bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.sent {
		return
	}
	s.status = code
	s.sent = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.sent = true
	n, err := s.ResponseWriter.Write(b)
	s.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// LoggingConfig selects which requests reach the access log.
type LoggingConfig struct {
	// SkipPrefixes are path prefixes never logged, e.g. "/debug".
	SkipPrefixes []string
	// LogHealthChecks includes the health endpoints, which orchestrators
	// hit every few seconds.
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything, health checks included.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

var healthPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

func (c LoggingConfig) skips(path string) bool {
	if !c.LogHealthChecks && healthPaths[path] {
		return true
	}
	return lo.ContainsBy(c.SkipPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// accessFields are the W3C columns of every access line, in order.
var accessFields = []string{
	"date", "time", "c-ip", "cs-method", "cs-uri-stem", "cs-uri-query",
	"sc-status", "sc-bytes", "time-taken", "sc(Content-Encoding)",
	"cs(User-Agent)", "x-render-outcome", "x-request-id",
}

// FieldsDirective is the W3C header naming the access line columns.
var FieldsDirective = "#Fields: " + strings.Join(accessFields, " ")

// Logger writes one W3C extended log line per request. The fields
// directive is written before the first line.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	var directive sync.Once

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skips(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			directive.Do(func() { logging.Println(FieldsDirective) })
			//nolint:gosec // G706: accessLine sanitizes every request-controlled value.
			logging.Println(accessLine(time.Now().UTC(), r, rec, time.Since(start)))
		})
	}
}

// accessLine renders the accessFields columns for one request.
func accessLine(now time.Time, r *http.Request, rec *statusRecorder, took time.Duration) string {
	header := rec.Header()
	values := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		logValue(getClientIP(r)),
		logValue(r.Method),
		logValue(r.URL.Path),
		logValue(r.URL.RawQuery),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.written, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		logValue(header.Get("Content-Encoding")),
		quoteW3C(logValue(r.Header.Get("User-Agent"))),
		logValue(header.Get(renderOutcomeHeader)),
		logValue(header.Get(RequestIDHeader)),
	}
	return strings.Join(values, " ")
}

// logValue sanitizes s and stands in "-" for empty values.
func logValue(s string) string {
	if s = sanitizeLogField(s); s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField turns line breaks into spaces and drops NUL, ESC and the
// other control characters except tab, so a header cannot forge log lines
// or drive a terminal.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// quoteW3C wraps values containing whitespace or quotes in double quotes,
// doubling embedded quotes.
func quoteW3C(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
