package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nowplaying/internal/logging"
)

// maxScrapes bounds concurrent metric scrapes.
const maxScrapes = 2

// scrapeLogger routes gathering errors into the application log.
type scrapeLogger struct{}

func (scrapeLogger) Println(v ...interface{}) {
	logging.Error("Metrics scrape: %s", fmt.Sprint(v...))
}

// MetricsHandler serves the default registry. A collector that fails does
// not hide the others, and OpenMetrics is offered to scrapers that ask.
func (h *Handlers) MetricsHandler() http.Handler {
	metricsHandler := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:            scrapeLogger{},
			ErrorHandling:       promhttp.ContinueOnError,
			MaxRequestsInFlight: maxScrapes,
			Timeout:             pingTimeout,
			EnableOpenMetrics:   true,
		}),
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		metricsHandler.ServeHTTP(w, r)
	})
}
