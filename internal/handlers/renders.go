package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nowplaying/internal/database"
	"nowplaying/internal/logging"
)

const (
	defaultRenderLimit = 50
	maxRenderLimit     = 500
)

// GetRender returns the ledger record for {id}.
func (h *Handlers) GetRender(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.ledger.GetRender(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "no render recorded for "+id, http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Failed to read render %s: %v", id, err)
		writeJSONError(w, "failed to read render", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, rec)
}

// ListRenders returns the most recent renders.
func (h *Handlers) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit := defaultRenderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRenderLimit)
	}

	recs, err := h.ledger.ListRenders(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list renders: %v", err)
		writeJSONError(w, "failed to list renders", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []database.RenderRecord{}
	}

	writeJSONStatus(w, http.StatusOK, recs)
}
