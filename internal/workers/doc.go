/*
Package workers sizes the renderer's concurrency from the CPUs actually
available to the process.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container's CPU limit. A pod limited to 2 cores on a 64-core node should
compose 2 posters at a time, not 64:

	workers := runtime.NumCPU()     // 64, wrong
	workers := runtime.GOMAXPROCS(0) // 2

# Usage

	// Simultaneous compositions in the server, at most 8.
	concurrency := workers.ForCPU(8)

	// Identifiers rendered in parallel by the CLI, where most of the
	// time goes to the lookup and download.
	parallel := workers.ForIO(16)

# Override

RENDER_CONCURRENCY replaces the computed count:

	RENDER_CONCURRENCY=4 ./nowplaying

The override is still capped by the limit argument. Invalid or
non-positive values are ignored.
*/
package workers
