// Package memory configures Go's soft memory limit for containers and
// holds back poster compositions when the heap nears that limit.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before large allocations:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// Environment variables:
//
//   - GOMEMLIMIT: standard Go variable. If set, takes precedence.
//   - MEMORY_LIMIT: container memory limit in bytes, usually from the
//     Kubernetes Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap
//     (default 0.85). Lower it when libvips is enabled, since its
//     allocations live outside the Go heap.
//
// # Backpressure
//
// A [Monitor] samples heap allocation every CheckInterval. At
// CriticalWaterMark it pauses and triggers a GC; below HighWaterMark it
// resumes. The renderer calls [Monitor.Wait] before each composition:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
// Without a configured limit the monitor never pauses.
package memory
