package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"nowplaying/internal/logging"
)

// Where the heap limit came from, as reported in ConfigResult.Source.
const (
	SourceGoMemLimit = "GOMEMLIMIT"
	SourceContainer  = "MEMORY_LIMIT"
	SourceNone       = "none"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go
	// heap. The remainder covers libvips buffers and goroutine stacks.
	DefaultMemoryRatio = 0.85

	// idleHeapBytes is what the server holds with no composition running:
	// fonts, the lookup memo, the ledger connection and HTTP buffers.
	idleHeapBytes = 64 << 20
)

// ConfigResult describes how the heap limit was chosen.
type ConfigResult struct {
	// Configured reports whether a finite GOMEMLIMIT is in effect.
	Configured bool
	// Source is one of SourceGoMemLimit, SourceContainer or SourceNone.
	Source string
	// ContainerLimit is MEMORY_LIMIT in bytes, 0 when unused.
	ContainerLimit int64
	// GoMemLimit is the heap limit in bytes, 0 when unlimited.
	GoMemLimit int64
	// Ratio is the share of ContainerLimit applied, 0 when unused.
	Ratio float64
}

// ConfigureFromEnv sets the runtime heap limit. Call it before the stack
// is built so render concurrency can be fitted to the result.
//
// GOMEMLIMIT wins when set, since the runtime has already applied it.
// Otherwise MEMORY_LIMIT (bytes, usually from the Kubernetes Downward API)
// is scaled by MEMORY_RATIO, default 0.85.
func ConfigureFromEnv() ConfigResult {
	if raw := os.Getenv("GOMEMLIMIT"); raw != "" {
		logging.Info("GOMEMLIMIT set via environment: %s", raw)
		limit := CurrentLimit()
		return ConfigResult{Configured: limit > 0, Source: SourceGoMemLimit, GoMemLimit: limit}
	}

	container, ok := containerLimit()
	if !ok {
		return ConfigResult{Source: SourceNone}
	}

	ratio := ratioFromEnv()
	limit := int64(float64(container) * ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(limit), ratio*100, formatBytes(container))

	return ConfigResult{
		Configured:     true,
		Source:         SourceContainer,
		ContainerLimit: container,
		GoMemLimit:     limit,
		Ratio:          ratio,
	}
}

func containerLimit() (int64, bool) {
	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT alone")
		return 0, false
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: want a positive byte count", raw)
		return 0, false
	}
	return limit, true
}

func ratioFromEnv() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("Ignoring MEMORY_RATIO %q: want a number in (0, 1], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// CurrentLimit returns the runtime heap limit in bytes, or 0 when there is
// none.
func CurrentLimit() int64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 0
	}
	return limit
}

// RenderCapacity returns how many compositions needing perRender bytes fit
// under the monitor's critical watermark next to the idle server. It is at
// least 1 when a limit is set and 0 when there is no limit.
func RenderCapacity(perRender int64) int {
	limit := CurrentLimit()
	if limit == 0 || perRender <= 0 {
		return 0
	}
	usable := int64(float64(limit)*DefaultConfig().CriticalWaterMark) - idleHeapBytes
	return max(1, int(usable/perRender))
}

// FitConcurrency lowers requested to RenderCapacity(perRender) when the heap
// limit cannot hold that many compositions at once.
func FitConcurrency(requested int, perRender int64) int {
	capacity := RenderCapacity(perRender)
	if capacity == 0 || requested <= capacity {
		return requested
	}
	logging.Warn("Render concurrency %d needs %s of heap but the limit is %s, using %d",
		requested, formatBytes(int64(requested)*perRender), formatBytes(CurrentLimit()), capacity)
	return capacity
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
