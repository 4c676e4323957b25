package workers

import (
	"os"
	"runtime"
	"strconv"

	"nowplaying/internal/logging"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "RENDER_CONCURRENCY"

// Per-CPU weights for ForCPU and ForIO. Composition keeps a core busy;
// lookups and cover downloads mostly wait on the network.
const (
	composeWeight = 1.0
	fetchWeight   = 2.0
)

// Count returns perCPU workers for every CPU GOMAXPROCS grants the process,
// at least one, capped at limit when limit is positive. A positive
// RENDER_CONCURRENCY replaces the computed count but is still capped.
func Count(perCPU float64, limit int) int {
	n, ok := override()
	if !ok {
		n = max(1, int(float64(runtime.GOMAXPROCS(0))*perCPU))
	}
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

func override() (int, bool) {
	raw := os.Getenv(OverrideEnv)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		logging.Debug("Ignoring %s=%q: want a positive integer", OverrideEnv, raw)
		return 0, false
	}
	return n, true
}

// ForCPU sizes poster composition, one worker per CPU.
func ForCPU(limit int) int {
	return Count(composeWeight, limit)
}

// ForIO sizes batch rendering, where most of the time goes to the lookup
// and the cover download.
func ForIO(limit int) int {
	return Count(fetchWeight, limit)
}
