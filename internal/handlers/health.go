package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nowplaying/internal/logging"
	"nowplaying/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// pingTimeout bounds ledger checks in health endpoints.
const pingTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Ledger summary
	TotalRenders       int `json:"totalRenders"`
	PlaceholderRenders int `json:"placeholderRenders"`
	LiveRenders        int `json:"liveRenders"`
}

// HealthCheck returns the health status of the service. It answers 503
// while the ledger is unreachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	statusCode := http.StatusOK
	if err := h.pingLedger(r.Context()); err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
		statusCode = http.StatusServiceUnavailable
	} else {
		stats := h.ledger.GetStats()
		response.TotalRenders = stats.TotalRenders
		response.PlaceholderRenders = stats.PlaceholderRenders
		response.LiveRenders = stats.LiveRenders
	}

	writeJSONStatus(w, statusCode, response)
}

// LivenessCheck always returns 200 while the server is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the ledger answers and the cache
// directory accepts writes.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingLedger(r.Context()); err != nil {
		logging.Warn("Readiness: ledger unavailable: %v", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "ledger unavailable",
		})
		return
	}

	if err := startup.CheckWritable(h.cacheDir); err != nil {
		logging.Warn("Readiness: cache directory not writable: %v", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "cache directory not writable",
		})
		return
	}

	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *Handlers) pingLedger(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.ledger.Ping(ctx)
}
