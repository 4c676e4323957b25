package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"nowplaying/internal/logging"
	"nowplaying/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// DefaultThumbURL is the placeholder cover and the fallback result.
const DefaultThumbURL = "https://i.ytimg.com/img/no_thumbnail.jpg"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	CacheDir        string
	AssetsDir       string
	DatabaseDir     string
	TitleFont       string
	RegularFont     string
	IconsFile       string
	LayoutFile      string
	DefaultThumbURL string
	SearchAPIURL    string
	WatchURLPrefix  string
	SourceLabel     string

	HTTPTimeout       time.Duration
	DownloadRetries   int
	LookupCacheTTL    time.Duration
	RenderConcurrency int

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	VipsEnabled     bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("No %s file found", path)
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Info("Loaded environment from %s", path)
	return nil
}

// LoadConfig prints the banner and loads configuration from the
// environment. The cache and database directories are created if absent
// and must be writable.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	return loadConfig()
}

// LoadQuietConfig loads configuration like LoadConfig without the banner
// and section headers, for command-line tools.
func LoadQuietConfig() (*Config, error) {
	return loadConfig()
}

func loadConfig() (*Config, error) {
	logSection("CONFIGURATION")

	cacheDir := getEnv("CACHE_DIR", "cache")
	assetsDir := getEnv("ASSETS_DIR", "assets")

	cfg := &Config{
		CacheDir:          cacheDir,
		AssetsDir:         assetsDir,
		DatabaseDir:       getEnv("DATABASE_DIR", filepath.Join(cacheDir, "db")),
		TitleFont:         getEnv("TITLE_FONT", filepath.Join(assetsDir, "font2.ttf")),
		RegularFont:       getEnv("REGULAR_FONT", filepath.Join(assetsDir, "font.ttf")),
		IconsFile:         getEnv("ICONS_FILE", filepath.Join(assetsDir, "play_icons.png")),
		LayoutFile:        getEnv("LAYOUT_FILE", ""),
		DefaultThumbURL:   getEnv("DEFAULT_THUMB_URL", DefaultThumbURL),
		SearchAPIURL:      getEnv("SEARCH_API_URL", ""),
		WatchURLPrefix:    getEnv("WATCH_URL_PREFIX", ""),
		SourceLabel:       getEnv("SOURCE_LABEL", ""),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		DownloadRetries:   getEnvInt("DOWNLOAD_RETRIES", 0),
		LookupCacheTTL:    getEnvDuration("LOOKUP_CACHE_TTL", 10*time.Minute),
		RenderConcurrency: getEnvInt("RENDER_CONCURRENCY", 0),
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		VipsEnabled:       getEnvBool("VIPS_ENABLED", false),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
	}

	if cfg.DownloadRetries < 0 {
		logging.Warn("  DOWNLOAD_RETRIES cannot be negative, using 0")
		cfg.DownloadRetries = 0
	}

	logging.Info("  CACHE_DIR:           %s", cfg.CacheDir)
	logging.Info("  ASSETS_DIR:          %s", cfg.AssetsDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  LAYOUT_FILE:         %s", valueOrDash(cfg.LayoutFile))
	logging.Info("  SEARCH_API_URL:      %s", valueOrDash(cfg.SearchAPIURL))
	logging.Info("  DEFAULT_THUMB_URL:   %s", cfg.DefaultThumbURL)
	logging.Info("  HTTP_TIMEOUT:        %v", cfg.HTTPTimeout)
	logging.Info("  DOWNLOAD_RETRIES:    %d", cfg.DownloadRetries)
	logging.Info("  LOOKUP_CACHE_TTL:    %v", cfg.LookupCacheTTL)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  VIPS_ENABLED:        %v", cfg.VipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logSection("DIRECTORY SETUP")

	var err error
	if cfg.CacheDir, err = filepath.Abs(cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	if cfg.DatabaseDir, err = filepath.Abs(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cfg.CacheDir)
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)

	for _, dir := range []struct{ path, name string }{
		{cfg.CacheDir, "cache"},
		{cfg.DatabaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "renders.db")

	return cfg, nil
}

// RenderTimeout bounds one render pipeline: a lookup, a download and a
// composition. The server write timeout uses the same bound.
func (c *Config) RenderTimeout() time.Duration {
	return 2*c.HTTPTimeout + 30*time.Second
}

func logSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv
func LogMemoryConfig(result memory.ConfigResult) {
	if !result.Configured {
		logging.Debug("  Memory limit: not configured")
		return
	}
	logging.Info("  Memory limit:    %s bytes (from %s)", strconv.FormatInt(result.GoMemLimit, 10), result.Source)
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logSection("DATABASE INITIALIZATION")
	logging.Info("  [OK] Render ledger initialized in %v", duration)
}

// RendererInfo describes the assembled render stack for the startup log
type RendererInfo struct {
	Concurrency   int
	FallbackFonts bool
	VipsEnabled   bool
	SearchEnabled bool
	IconsPresent  bool
}

// LogRendererInit logs renderer initialization
func LogRendererInit(info RendererInfo) {
	logSection("RENDERER INITIALIZATION")
	logging.Info("  Concurrent compositions: %d", info.Concurrency)
	if info.FallbackFonts {
		logging.Warn("  Fonts: built-in fallback (title and regular fonts could not be loaded)")
	} else {
		logging.Info("  Fonts: [OK]")
	}
	if !info.IconsPresent {
		logging.Warn("  Icon strip not found, posters will be drawn without it")
	}
	logging.Info("  Metadata lookup: %s", enabledString(info.SearchEnabled))
	logging.Info("  libvips decode:  %s", enabledString(info.VipsEnabled))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logSection("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Posters:         http://0.0.0.0:%s/api/thumbnail/{id}", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    _   __                 ____  __            _
   / | / /___ _      __   / __ \/ /___ ___  __(_)___  ____ _
  /  |/ / __ \ | /| / /  / /_/ / / __ '/ / / / / __ \/ __ '/
 / /|  / /_/ / |/ |/ /  / ____/ / /_/ / /_/ / / / / / /_/ /
/_/ |_/\____/|__/|__/  /_/   /_/\__,_/\__, /_/_/ /_/\__, /
                                     /____/        /____/
------------------------------------------------------------`
	logging.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// CheckWritable reports whether dir accepts new files. The readiness
// check runs it against the cache directory.
func CheckWritable(dir string) error {
	return testWriteAccess(dir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
