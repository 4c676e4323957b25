package handlers

import (
	"context"
	"time"

	"nowplaying/internal/database"
	"nowplaying/internal/metrics"
	"nowplaying/internal/thumbnail"
)

// Renderer produces posters.
type Renderer interface {
	Render(ctx context.Context, id string) (thumbnail.Result, error)
}

// Ledger is the read side of the render ledger.
type Ledger interface {
	GetRender(ctx context.Context, id string) (database.RenderRecord, error)
	ListRenders(ctx context.Context, limit int) ([]database.RenderRecord, error)
	GetStats() metrics.Stats
	Ping(ctx context.Context) error
}

// Handlers serves the HTTP API.
type Handlers struct {
	renderer  Renderer
	ledger    Ledger
	cacheDir  string
	startTime time.Time
}

// New creates the handlers. The readiness check writes to cacheDir.
func New(renderer Renderer, ledger Ledger, cacheDir string) *Handlers {
	return &Handlers{
		renderer:  renderer,
		ledger:    ledger,
		cacheDir:  cacheDir,
		startTime: time.Now(),
	}
}

var _ Ledger = (*database.Database)(nil)
var _ Renderer = (*thumbnail.Renderer)(nil)
