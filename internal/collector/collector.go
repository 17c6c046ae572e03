// Package collector owns the derived dashboard state. It fetches the two
// reporting windows, runs the metric pipeline, and publishes the resulting
// snapshot atomically — each fetch fully replaces the prior state.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
	"github.com/babybento/aeo-command/internal/metrics"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

// Fetcher retrieves validated performance rows for the current and previous
// reporting windows.
type Fetcher interface {
	FetchCurrentAndPrevious(ctx context.Context, now time.Time) (current, previous []gsc.PerformanceRow, err error)
}

// ErrSuperseded is returned by Refresh when a newer refresh started before
// this one could publish. The newer result wins; stale fetches never
// overwrite fresher state.
var ErrSuperseded = errors.New("collector: refresh superseded by a newer one")

// ErrUnknownNode is returned by SelectNode for names not in the snapshot.
var ErrUnknownNode = errors.New("collector: unknown node")

// Collector fetches performance data and holds the latest derived snapshot.
type Collector struct {
	fetcher  Fetcher
	catalog  *catalog.Catalog
	interval time.Duration
	now      func() time.Time

	mu         sync.RWMutex
	snapshot   *metrics.Snapshot
	currentRaw []gsc.PerformanceRow
	selected   string
	lastErr    string
	lastFetch  time.Time
	generation uint64
	cancel     context.CancelFunc
	isRunning  bool
}

// New creates a collector over the given fetcher and catalog.
func New(fetcher Fetcher, cat *catalog.Catalog, interval time.Duration) *Collector {
	return &Collector{
		fetcher:  fetcher,
		catalog:  cat,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the collector's clock (useful for testing).
func (c *Collector) SetClock(now func() time.Time) {
	c.now = now
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	logger.Info("starting performance collector", "interval", c.interval)

	if err := c.Refresh(ctx); err != nil {
		logger.Warn("initial fetch failed", "error", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping performance collector")
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
				logger.Warn("scheduled fetch failed", "error", err)
			}
		}
	}
}

// Refresh fetches both windows and recomputes the snapshot. Each call
// claims a generation; if a newer call starts before this one publishes,
// this one is cancelled and discarded. A failed fetch leaves the prior
// snapshot in place and records a displayable error.
func (c *Collector) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		// Supersede the still-running older fetch
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	fetchedAt := c.now()
	current, previous, err := c.fetcher.FetchCurrentAndPrevious(fetchCtx, fetchedAt)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return ErrSuperseded
		}
		c.lastErr = fmt.Sprintf("performance fetch failed: %v", err)
		logger.Error("performance fetch failed", "error", err)
		return err
	}

	snap := metrics.ComputeAll(current, previous, c.catalog)
	snap.ID = uuid.NewString()
	snap.FetchedAt = fetchedAt

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	c.snapshot = &snap
	c.currentRaw = current
	c.lastErr = ""
	c.lastFetch = fetchedAt

	logger.Info("snapshot published",
		"snapshot_id", snap.ID,
		"nodes", len(snap.Nodes),
		"retrieval_volume", snap.Aggregate.RetrievalVolume)
	return nil
}

// Snapshot returns the latest published snapshot, or nil before the first
// successful fetch.
func (c *Collector) Snapshot() *metrics.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Gaps runs the exact-match gap analysis over the latest current-period
// rows.
func (c *Collector) Gaps() []metrics.GapResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return metrics.AnalyzeGaps(c.catalog.Nodes(), c.currentRaw)
}

// SelectNode sets the display selection. The empty name restores the
// global view. Unknown names are rejected.
func (c *Collector) SelectNode(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name != "" {
		if c.snapshot == nil {
			return ErrUnknownNode
		}
		if _, ok := metrics.Project(c.snapshot.Nodes, name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
	}
	c.selected = name
	return nil
}

// SelectedNode returns the current selection, empty for the global view.
func (c *Collector) SelectedNode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Displayed projects the header metrics for the current selection.
func (c *Collector) Displayed() metrics.DisplayedMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return metrics.DisplayedMetrics{}
	}
	d, ok := metrics.Project(c.snapshot.Nodes, c.selected)
	if !ok {
		// Selection predates a catalog change; fall back to global
		d, _ = metrics.Project(c.snapshot.Nodes, "")
	}
	return d
}

// LastError returns the displayable error from the most recent failed
// fetch, empty when the last fetch succeeded.
func (c *Collector) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastFetchTime returns when the current snapshot was fetched.
func (c *Collector) LastFetchTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}
