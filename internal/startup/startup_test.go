package startup

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"nowplaying/internal/memory"
	"nowplaying/internal/thumbnail"
)

var configEnv = []string{
	"CACHE_DIR", "ASSETS_DIR", "DATABASE_DIR", "TITLE_FONT", "REGULAR_FONT",
	"ICONS_FILE", "LAYOUT_FILE", "DEFAULT_THUMB_URL", "SEARCH_API_URL",
	"WATCH_URL_PREFIX", "SOURCE_LABEL", "HTTP_TIMEOUT", "DOWNLOAD_RETRIES",
	"LOOKUP_CACHE_TTL", "RENDER_CONCURRENCY", "PORT", "METRICS_PORT",
	"METRICS_ENABLED", "VIPS_ENABLED", "LOG_HEALTH_CHECKS",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}

	if cfg.CacheDir != filepath.Join(dir, "cache") {
		t.Errorf("CacheDir = %s", cfg.CacheDir)
	}
	if cfg.DatabaseDir != filepath.Join(dir, "cache", "db") {
		t.Errorf("DatabaseDir = %s, want <cache>/db", cfg.DatabaseDir)
	}
	if cfg.DatabasePath != filepath.Join(dir, "cache", "db", "renders.db") {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if cfg.TitleFont != filepath.Join("assets", "font2.ttf") || cfg.RegularFont != filepath.Join("assets", "font.ttf") {
		t.Errorf("fonts = %s, %s", cfg.TitleFont, cfg.RegularFont)
	}
	if cfg.IconsFile != filepath.Join("assets", "play_icons.png") {
		t.Errorf("IconsFile = %s", cfg.IconsFile)
	}
	if cfg.DefaultThumbURL != DefaultThumbURL {
		t.Errorf("DefaultThumbURL = %s", cfg.DefaultThumbURL)
	}
	if cfg.HTTPTimeout != 15*time.Second || cfg.LookupCacheTTL != 10*time.Minute {
		t.Errorf("timeouts = %v, %v", cfg.HTTPTimeout, cfg.LookupCacheTTL)
	}
	if cfg.DownloadRetries != 0 {
		t.Errorf("DownloadRetries = %d, want 0", cfg.DownloadRetries)
	}
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" || !cfg.MetricsEnabled || cfg.VipsEnabled {
		t.Errorf("server settings = %+v", cfg)
	}

	for _, d := range []string{cfg.CacheDir, cfg.DatabaseDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("%s should have been created", d)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(dir, "c"))
	t.Setenv("DATABASE_DIR", filepath.Join(dir, "d"))
	t.Setenv("ASSETS_DIR", "/opt/assets")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("DOWNLOAD_RETRIES", "2")
	t.Setenv("LOOKUP_CACHE_TTL", "0")
	t.Setenv("VIPS_ENABLED", "true")
	t.Setenv("SOURCE_LABEL", "SoundCloud")

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}

	if cfg.DatabaseDir != filepath.Join(dir, "d") {
		t.Errorf("DatabaseDir = %s", cfg.DatabaseDir)
	}
	if cfg.TitleFont != "/opt/assets/font2.ttf" {
		t.Errorf("TitleFont = %s", cfg.TitleFont)
	}
	if cfg.HTTPTimeout != 3*time.Second || cfg.DownloadRetries != 2 || cfg.LookupCacheTTL != 0 {
		t.Errorf("network settings = %v, %d, %v", cfg.HTTPTimeout, cfg.DownloadRetries, cfg.LookupCacheTTL)
	}
	if !cfg.VipsEnabled || cfg.SourceLabel != "SoundCloud" {
		t.Errorf("VipsEnabled = %v, SourceLabel = %q", cfg.VipsEnabled, cfg.SourceLabel)
	}
}

func TestLoadConfigNegativeRetries(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DOWNLOAD_RETRIES", "-3")

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}
	if cfg.DownloadRetries != 0 {
		t.Errorf("DownloadRetries = %d, want 0", cfg.DownloadRetries)
	}
}

func TestLoadConfigCacheDirIsFile(t *testing.T) {
	clearConfigEnv(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CACHE_DIR", file)
	t.Setenv("DATABASE_DIR", t.TempDir())

	if _, err := LoadQuietConfig(); err == nil {
		t.Error("expected an error when CACHE_DIR is a file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "PORT=9999\nSEARCH_API_URL=http://search.local/api\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("METRICS_PORT", "7777")

	if err := LoadEnvFile(envFile); err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("SEARCH_API_URL")
	})

	if got := os.Getenv("PORT"); got != "9999" {
		t.Errorf("PORT = %q, want 9999", got)
	}
	if got := os.Getenv("SEARCH_API_URL"); got != "http://search.local/api" {
		t.Errorf("SEARCH_API_URL = %q", got)
	}
	if got := os.Getenv("METRICS_PORT"); got != "7777" {
		t.Errorf("existing variables must not be overridden, METRICS_PORT = %q", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("a missing .env file should not be an error: %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BAD_INT", "twelve")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_DURATION", "soon")
	t.Setenv("TEST_NEG_DURATION", "-1s")
	t.Setenv("TEST_BOOL", "f")
	t.Setenv("TEST_BAD_BOOL", "maybe")

	if got := getEnvInt("TEST_INT", 1); got != 12 {
		t.Errorf("getEnvInt = %d, want 12", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 1); got != 1 {
		t.Errorf("getEnvInt(bad) = %d, want default", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration = %v", got)
	}
	if got := getEnvDuration("TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration(bad) = %v, want default", got)
	}
	if got := getEnvDuration("TEST_NEG_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration(negative) = %v, want default", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("getEnvBool(f) = true")
	}
	if got := getEnvBool("TEST_BAD_BOOL", true); !got {
		t.Error("getEnvBool(bad) should return the default")
	}
	if got := getEnv("TEST_UNSET_STRING", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q", got)
	}
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	if err := CheckWritable(dir); err != nil {
		t.Errorf("CheckWritable(%s) = %v", dir, err)
	}
	if err := CheckWritable(filepath.Join(dir, "missing")); err == nil {
		t.Error("CheckWritable on a missing dir should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file should be removed")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/api/thumbnail/{id}", noop).Methods(http.MethodGet).Name("thumbnail")
	router.HandleFunc("/healthz", noop).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/any", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4: %+v", len(routes), routes)
	}
	if routes[0] != (RouteInfo{Method: http.MethodGet, Path: "/api/thumbnail/{id}", Name: "thumbnail"}) {
		t.Errorf("routes[0] = %+v", routes[0])
	}
	if routes[3].Method != "*" {
		t.Errorf("a route without methods should report *, got %q", routes[3].Method)
	}

	// Logging must not panic on any router.
	LogHTTPRoutes(router, true)
	LogHTTPRoutes(mux.NewRouter(), false)
}

func TestLifecycleLogging(_ *testing.T) {
	LogMemoryConfig(memory.ConfigResult{})
	LogMemoryConfig(memory.ConfigResult{Configured: true, Source: "MEMORY_LIMIT", GoMemLimit: 1 << 30})
	LogDatabaseInit(time.Millisecond)
	LogRendererInit(RendererInfo{Concurrency: 2, FallbackFonts: true})
	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true})
	LogServerStarted(ServerConfig{Port: "8080"})
	LogShutdownInitiated("interrupt")
	LogShutdownStep("Stopping HTTP server")
	LogShutdownStepComplete("HTTP server stopped")
	LogShutdownComplete()
}

func TestNewStack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("ASSETS_DIR", t.TempDir())
	t.Setenv("RENDER_CONCURRENCY", "3")
	t.Setenv("SOURCE_LABEL", "Radio")

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}

	stack, err := NewStack(cfg, nil)
	if err != nil {
		t.Fatalf("NewStack() error: %v", err)
	}
	defer stack.Close()

	if stack.Info.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", stack.Info.Concurrency)
	}
	if !stack.Info.FallbackFonts || stack.Info.IconsPresent || stack.Info.SearchEnabled || stack.Info.VipsEnabled {
		t.Errorf("Info = %+v", stack.Info)
	}
	if stack.Layout.SourceLabel != "Radio" {
		t.Errorf("SourceLabel = %q, want Radio", stack.Layout.SourceLabel)
	}
	if stack.String() == "" {
		t.Error("String() should describe the stack")
	}
}

func TestNewStackFitsConcurrencyToHeapLimit(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("ASSETS_DIR", t.TempDir())
	t.Setenv("RENDER_CONCURRENCY", "16")

	old := debug.SetMemoryLimit(256 << 20)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}
	stack, err := NewStack(cfg, nil)
	if err != nil {
		t.Fatalf("NewStack() error: %v", err)
	}
	defer stack.Close()

	// 85% of 256 MiB less the idle heap holds three 1920x1080 compositions.
	if stack.Info.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", stack.Info.Concurrency)
	}
}

func TestRenderTimeout(t *testing.T) {
	cfg := &Config{HTTPTimeout: 15 * time.Second}
	if got := cfg.RenderTimeout(); got != time.Minute {
		t.Errorf("RenderTimeout() = %v, want 1m", got)
	}
}

func TestNewStackBadLayout(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("LAYOUT_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}
	if _, err := NewStack(cfg, nil); err == nil {
		t.Error("expected an error for a missing layout file")
	}
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewStackRendersEndToEnd(t *testing.T) {
	cover := coverPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[{"title":"Test Song","duration":"3:05","viewCount":{"short":"9K views"},"thumbnails":[{"url":"` +
				"http://" + r.Host + `/cover.png"}]}]}`))
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(cover)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("ASSETS_DIR", t.TempDir())
	t.Setenv("SEARCH_API_URL", srv.URL+"/search")

	cfg, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig() error: %v", err)
	}
	stack, err := NewStack(cfg, nil)
	if err != nil {
		t.Fatalf("NewStack() error: %v", err)
	}
	defer stack.Close()

	result, err := stack.Renderer.Render(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if result.Outcome != thumbnail.OutcomeRendered {
		t.Fatalf("Outcome = %v, want rendered", result.Outcome)
	}
	if result.Metadata.Title != "Test Song" {
		t.Errorf("Title = %q", result.Metadata.Title)
	}

	f, err := os.Open(result.Path)
	if err != nil {
		t.Fatalf("poster not written: %v", err)
	}
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("poster is not a PNG: %v", err)
	}
	if cfgImg.Width != 1920 || cfgImg.Height != 1080 {
		t.Errorf("poster is %dx%d, want 1920x1080", cfgImg.Width, cfgImg.Height)
	}
}
