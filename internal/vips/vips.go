// Package vips is an optional cover decoder backed by libvips. It shrinks
// JPEGs while decoding, which keeps memory flat when a source serves very
// large artwork. When libvips has not been started, [LoadCover] falls back
// to the pure-Go decoder.
package vips

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"nowplaying/internal/logging"
	"nowplaying/internal/media"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// logSettings maps the application log level to the libvips level and a
// handler routing libvips messages into the application log.
func logSettings(appLevel logging.LogLevel) (govips.LogLevel, func(string, govips.LogLevel, string)) {
	var minLevel govips.LogLevel
	switch appLevel {
	case logging.LevelDebug:
		minLevel = govips.LogLevelInfo
	case logging.LevelInfo:
		minLevel = govips.LogLevelWarning
	case logging.LevelWarn:
		minLevel = govips.LogLevelError
	default:
		minLevel = govips.LogLevelCritical
	}

	handler := func(domain string, level govips.LogLevel, msg string) {
		switch level {
		case govips.LogLevelError, govips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case govips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return minLevel, handler
}

// Init starts libvips. It is idempotent and must be called before the
// first LoadCover that should use libvips.
func Init(concurrency int) {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	level, handler := logSettings(logging.GetLevel())
	govips.LoggingSettings(handler, level)

	govips.Startup(&govips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", govips.Version)
}

// Shutdown stops libvips. govips cannot restart it in the same process.
func Shutdown() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		govips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsAvailable returns whether libvips is initialized.
func IsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadCover is a media.Loader that decodes with libvips, shrinking to fit
// within maxWidth x maxHeight during decode. Without libvips it delegates
// to media.LoadCover.
func LoadCover(path string, maxWidth, maxHeight int) (image.Image, error) {
	if !IsAvailable() {
		return media.LoadCover(path, maxWidth, maxHeight)
	}

	ref, err := govips.LoadImageFromFile(path, govips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d, fitting to %dx%d",
		filepath.Base(path), ref.Width(), ref.Height(), maxWidth, maxHeight)

	if ref.Width() > maxWidth || ref.Height() > maxHeight {
		if err := ref.Thumbnail(maxWidth, maxHeight, govips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	imgBytes, _, err := ref.ExportJpeg(&govips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

var _ media.Loader = LoadCover
