package thumbnail

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"nowplaying/internal/database"
	"nowplaying/internal/download"
	"nowplaying/internal/filesystem"
	"nowplaying/internal/logging"
	"nowplaying/internal/media"
	"nowplaying/internal/metrics"
	"nowplaying/internal/track"
)

const (
	// CacheSuffix is appended to the identifier to name the cached poster.
	CacheSuffix = metrics.PosterSuffix
	// scratchPrefix names the downloaded cover while a poster is composed.
	scratchPrefix = "thumb"
)

// ErrInvalidIdentifier is returned for identifiers that cannot name a cache file.
var ErrInvalidIdentifier = track.ErrInvalidIdentifier

// Searcher looks up track metadata.
type Searcher interface {
	Search(ctx context.Context, id string) (track.Metadata, error)
}

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dst string) error
}

// Composer draws a poster from a cover file and metadata.
type Composer interface {
	Compose(coverPath string, meta track.Metadata) (image.Image, error)
}

// Ledger records completed renders.
type Ledger interface {
	RecordRender(ctx context.Context, rec database.RenderRecord) error
}

// Gate holds back compositions while resources are scarce. The memory
// monitor implements it.
type Gate interface {
	Wait(ctx context.Context) error
}

// Config holds renderer settings.
type Config struct {
	// CacheDir holds posters and scratch downloads. It must exist.
	CacheDir string
	// DefaultThumbURL is the placeholder cover and the fallback result.
	DefaultThumbURL string
	// Concurrency bounds simultaneous compositions. Values below 1 mean 1.
	Concurrency int
	// Timeout bounds one pipeline run. Zero means no bound.
	Timeout time.Duration
	// Retry controls cache lookups on network filesystems.
	Retry filesystem.RetryConfig
	// Gate, if set, is consulted before each composition.
	Gate Gate
}

// Renderer produces posters. It is safe for concurrent use.
type Renderer struct {
	config     Config
	searcher   Searcher
	downloader Downloader
	composer   Composer
	ledger     Ledger

	group singleflight.Group
	sem   chan struct{}
}

// New creates a Renderer. ledger may be nil.
func New(config Config, searcher Searcher, downloader Downloader, composer Composer, ledger Ledger) *Renderer {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Renderer{
		config:     config,
		searcher:   searcher,
		downloader: downloader,
		composer:   composer,
		ledger:     ledger,
		sem:        make(chan struct{}, config.Concurrency),
	}
}

// CachePath returns where the poster for id is cached.
func (r *Renderer) CachePath(id string) string {
	return filepath.Join(r.config.CacheDir, id+CacheSuffix)
}

// ScratchPath returns where the cover for id is downloaded.
func (r *Renderer) ScratchPath(id string) string {
	return filepath.Join(r.config.CacheDir, scratchPrefix+id+".png")
}

// Render returns the poster for id, rendering and caching it if needed.
// A cover download failure is not an error: the Result is OutcomeFallback.
//
// Concurrent calls for the same id share one pipeline. A caller whose ctx
// ends stops waiting, but the pipeline runs to completion for the others.
func (r *Renderer) Render(ctx context.Context, id string) (Result, error) {
	if err := track.ValidateIdentifier(id); err != nil {
		return Result{}, err
	}

	start := time.Now()
	result, err := r.render(ctx, id)
	outcome := result.Outcome.String()
	if err != nil {
		outcome = "error"
		logging.Error("Render %s failed: %v", id, err)
	}
	metrics.RendersTotal.WithLabelValues(outcome).Inc()
	metrics.RenderDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return result, err
}

func (r *Renderer) render(ctx context.Context, id string) (Result, error) {
	if result, ok := r.cached(id); ok {
		metrics.CacheHits.Inc()
		return result, nil
	}
	metrics.CacheMisses.Inc()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("render %s cancelled: %w", id, err)
	}

	// ran is only written by the leader and is read after the result is
	// received, which orders the two.
	ran := false
	ch := r.group.DoChan(id, func() (interface{}, error) {
		ran = true
		// A flight that finished between our stat and DoChan has already
		// written the poster.
		if result, ok := r.cached(id); ok {
			return result, nil
		}
		flightCtx, cancel := r.flightContext(ctx)
		defer cancel()
		return r.pipeline(flightCtx, id)
	})

	select {
	case res := <-ch:
		if res.Shared && !ran {
			metrics.RenderCoalesced.Inc()
			logging.Debug("Render %s shared with a concurrent request", id)
		}
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	case <-ctx.Done():
		// The flight carries on for the callers still waiting and caches
		// the poster for the next request.
		return Result{}, fmt.Errorf("render %s cancelled: %w", id, ctx.Err())
	}
}

// flightContext detaches a shared pipeline from the caller that started it.
// It keeps the caller's values and is bounded by Config.Timeout instead.
func (r *Renderer) flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if r.config.Timeout > 0 {
		return context.WithTimeout(ctx, r.config.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Renderer) cached(id string) (Result, bool) {
	path := r.CachePath(id)
	exists, err := filesystem.Exists(path, r.config.Retry)
	if err != nil {
		logging.Warn("Cache check for %s failed, rendering anyway: %v", path, err)
		return Result{}, false
	}
	if !exists {
		return Result{}, false
	}
	return Result{Outcome: OutcomeCached, Path: path}, true
}

func (r *Renderer) pipeline(ctx context.Context, id string) (Result, error) {
	metrics.RendersInFlight.Inc()
	defer metrics.RendersInFlight.Dec()

	start := time.Now()
	meta := r.lookup(ctx, id)

	scratch := r.ScratchPath(id)
	if err := r.download(ctx, meta.CoverURL, scratch); err != nil {
		filesystem.RemoveQuietly(scratch)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("render %s cancelled: %w", id, ctxErr)
		}
		logging.Warn("Cover download for %s failed, returning default thumbnail: %v", id, err)
		return Result{Outcome: OutcomeFallback, URL: r.config.DefaultThumbURL, Metadata: meta}, nil
	}

	img, err := r.compose(ctx, scratch, meta)
	filesystem.RemoveQuietly(scratch)
	if err != nil {
		return Result{}, fmt.Errorf("failed to compose poster for %s: %w", id, err)
	}

	cachePath := r.CachePath(id)
	encodeStart := time.Now()
	err = filesystem.WriteAtomic(cachePath, func(w io.Writer) error {
		return media.EncodePNG(w, img)
	})
	metrics.RenderPhaseDuration.WithLabelValues("encode").Observe(time.Since(encodeStart).Seconds())
	if err != nil {
		return Result{}, fmt.Errorf("failed to write poster for %s: %w", id, err)
	}

	elapsed := time.Since(start)
	r.record(ctx, id, meta, cachePath, elapsed)
	logging.Info("Rendered poster for %s in %v (%s)", id, elapsed, meta.Source)

	return Result{Outcome: OutcomeRendered, Path: cachePath, Metadata: meta}, nil
}

// lookup never fails: errors yield placeholder metadata.
func (r *Renderer) lookup(ctx context.Context, id string) track.Metadata {
	start := time.Now()
	meta, err := r.searcher.Search(ctx, id)
	metrics.RenderPhaseDuration.WithLabelValues("lookup").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("placeholder").Inc()
		logging.Warn("Metadata lookup for %s failed, using placeholder: %v", id, err)
		return track.Placeholder(r.config.DefaultThumbURL)
	}
	metrics.LookupsTotal.WithLabelValues("success").Inc()
	return meta
}

func (r *Renderer) download(ctx context.Context, url, dst string) error {
	start := time.Now()
	err := r.downloader.Download(ctx, url, dst)
	metrics.RenderPhaseDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.DownloadsTotal.WithLabelValues("success").Inc()
	case download.IsStatusError(err):
		metrics.DownloadsTotal.WithLabelValues("http_error").Inc()
	default:
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
	}
	return err
}

// compose waits for a composition slot. Composition itself is not
// interruptible.
func (r *Renderer) compose(ctx context.Context, coverPath string, meta track.Metadata) (image.Image, error) {
	if r.config.Gate != nil {
		if err := r.config.Gate.Wait(ctx); err != nil {
			return nil, err
		}
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.sem }()

	start := time.Now()
	img, err := r.composer.Compose(coverPath, meta)
	metrics.RenderPhaseDuration.WithLabelValues("compose").Observe(time.Since(start).Seconds())
	return img, err
}

func (r *Renderer) record(ctx context.Context, id string, meta track.Metadata, cachePath string, elapsed time.Duration) {
	if r.ledger == nil {
		return
	}
	rec := database.RenderRecord{
		Identifier:  id,
		Title:       meta.Title,
		Views:       meta.Views,
		Duration:    meta.DurationText(),
		Live:        meta.IsLive(),
		CoverURL:    meta.CoverURL,
		Placeholder: meta.IsPlaceholder(),
		CachePath:   cachePath,
		RenderMs:    elapsed.Milliseconds(),
		RenderedAt:  time.Now(),
	}
	if err := r.ledger.RecordRender(ctx, rec); err != nil {
		logging.Warn("Failed to record render of %s in ledger: %v", id, err)
	}
}
