package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"nowplaying/internal/logging"
)

// PosterSuffix is the filename suffix of rendered posters in the cache dir.
const PosterSuffix = "_FHD.png"

// StatsProvider interface for collecting ledger stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current ledger statistics
type Stats struct {
	TotalRenders       int
	PlaceholderRenders int
	LiveRenders        int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	cacheDir      string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. provider may be nil when
// the ledger is disabled.
func NewCollector(provider StatsProvider, cacheDir string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		cacheDir:      cacheDir,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	size, count, err := CacheUsage(c.cacheDir)
	if err != nil {
		logging.Warn("Metrics: failed to measure cache dir %s: %v", c.cacheDir, err)
	} else {
		CacheSizeBytes.Set(float64(size))
		CacheFiles.Set(float64(count))
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	LedgerRendersTotal.WithLabelValues("all").Set(float64(stats.TotalRenders))
	LedgerRendersTotal.WithLabelValues("placeholder").Set(float64(stats.PlaceholderRenders))
	LedgerRendersTotal.WithLabelValues("live").Set(float64(stats.LiveRenders))

	logging.Debug("Metrics collected: cache=%d files (%d bytes), renders=%d, placeholder=%d, live=%d",
		count, size, stats.TotalRenders, stats.PlaceholderRenders, stats.LiveRenders)
}

// CacheUsage returns the total size and number of rendered posters directly
// inside dir. Scratch downloads and temp files are not counted.
func CacheUsage(dir string) (int64, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}

	var size int64
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PosterSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logging.Debug("Metrics: skipping %s: %v", filepath.Join(dir, e.Name()), err)
			continue
		}
		size += info.Size()
		count++
	}
	return size, count, nil
}
