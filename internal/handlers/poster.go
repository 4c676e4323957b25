package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"nowplaying/internal/logging"
	"nowplaying/internal/thumbnail"
)

// OutcomeHeader reports how a poster request was satisfied.
const OutcomeHeader = "X-Render-Outcome"

// GetThumbnail renders or serves the cached poster for {id}.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.renderer.Render(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, thumbnail.ErrInvalidIdentifier):
			writeJSONError(w, "invalid track identifier", http.StatusBadRequest)
		case r.Context().Err() != nil:
			logging.Debug("Poster request for %s abandoned by client", id)
		default:
			writeJSONError(w, "failed to render poster", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set(OutcomeHeader, result.Outcome.String())

	if result.IsFallback() {
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, result.URL, http.StatusFound)
		return
	}

	f, err := os.Open(result.Path)
	if err != nil {
		logging.Error("Poster %s vanished before it could be served: %v", result.Path, err)
		writeJSONError(w, "failed to read poster", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error("Failed to stat poster %s: %v", result.Path, err)
		writeJSONError(w, "failed to read poster", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, filepath.Base(result.Path), info.ModTime(), f)
}
