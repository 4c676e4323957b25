package startup

import (
	"fmt"
	"os"

	"nowplaying/internal/download"
	"nowplaying/internal/filesystem"
	"nowplaying/internal/layout"
	"nowplaying/internal/media"
	"nowplaying/internal/memory"
	"nowplaying/internal/search"
	"nowplaying/internal/thumbnail"
	"nowplaying/internal/vips"
	"nowplaying/internal/workers"
)

// maxCompositions caps concurrent compositions when RENDER_CONCURRENCY is
// unset. Each holds a decoded cover and a full-HD canvas.
const maxCompositions = 8

// Stack is the render pipeline assembled from a Config. The server and the
// CLI build the same one.
type Stack struct {
	Renderer *thumbnail.Renderer
	Layout   layout.Layout
	Info     RendererInfo

	search  *search.Client
	monitor *memory.Monitor
	vips    bool
}

// NewStack wires lookup, download, composition and the renderer. ledger
// may be nil.
func NewStack(cfg *Config, ledger thumbnail.Ledger) (*Stack, error) {
	l, err := layout.Load(cfg.LayoutFile)
	if err != nil {
		return nil, err
	}
	if cfg.SourceLabel != "" {
		l.SourceLabel = cfg.SourceLabel
	}

	concurrency := cfg.RenderConcurrency
	if concurrency <= 0 {
		concurrency = workers.ForCPU(maxCompositions)
	}
	concurrency = memory.FitConcurrency(concurrency, media.CompositionBytes(l))

	var loader media.Loader = media.LoadCover
	if cfg.VipsEnabled {
		vips.Init(concurrency)
		loader = vips.LoadCover
	}

	fonts := media.LoadFonts(cfg.TitleFont, cfg.RegularFont, l.TitleFontSize, l.RegularFontSize)
	composer := &media.Composer{
		Layout:    l,
		Fonts:     fonts,
		IconsPath: cfg.IconsFile,
		Loader:    loader,
	}

	searcher := search.NewClient(search.Config{
		BaseURL:         cfg.SearchAPIURL,
		WatchURLPrefix:  cfg.WatchURLPrefix,
		DefaultCoverURL: cfg.DefaultThumbURL,
		Timeout:         cfg.HTTPTimeout,
		MemoTTL:         cfg.LookupCacheTTL,
	})
	downloader := download.New(download.Config{
		Timeout: cfg.HTTPTimeout,
		Retries: cfg.DownloadRetries,
	})

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	renderer := thumbnail.New(thumbnail.Config{
		CacheDir:        cfg.CacheDir,
		DefaultThumbURL: cfg.DefaultThumbURL,
		Concurrency:     concurrency,
		Timeout:         cfg.RenderTimeout(),
		Retry:           filesystem.DefaultRetryConfig(),
		Gate:            monitor,
	}, searcher, downloader, composer, ledger)

	_, iconsErr := os.Stat(cfg.IconsFile)

	return &Stack{
		Renderer: renderer,
		Layout:   l,
		Info: RendererInfo{
			Concurrency:   concurrency,
			FallbackFonts: fonts.IsFallback(),
			VipsEnabled:   cfg.VipsEnabled && vips.IsAvailable(),
			SearchEnabled: cfg.SearchAPIURL != "",
			IconsPresent:  iconsErr == nil,
		},
		search:  searcher,
		monitor: monitor,
		vips:    cfg.VipsEnabled,
	}, nil
}

// Close stops background work started by NewStack.
func (s *Stack) Close() {
	s.search.Stop()
	s.monitor.Stop()
	if s.vips {
		vips.Shutdown()
	}
}

// String summarizes the stack for debug logs.
func (s *Stack) String() string {
	return fmt.Sprintf("renderer{concurrency=%d fonts_fallback=%v vips=%v search=%v}",
		s.Info.Concurrency, s.Info.FallbackFonts, s.Info.VipsEnabled, s.Info.SearchEnabled)
}
