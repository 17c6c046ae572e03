package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
)

type stubFetcher struct {
	mu       sync.Mutex
	current  []gsc.PerformanceRow
	previous []gsc.PerformanceRow
	err      error
	calls    int
}

func (s *stubFetcher) FetchCurrentAndPrevious(ctx context.Context, now time.Time) ([]gsc.PerformanceRow, []gsc.PerformanceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.current, s.previous, nil
}

func (s *stubFetcher) set(current, previous []gsc.PerformanceRow, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.previous = previous
	s.err = err
}

func sampleRows() []gsc.PerformanceRow {
	return []gsc.PerformanceRow{
		{Query: "best insulated lunch box", Clicks: 100, Impressions: 1000, CTR: 0.1, Position: 5},
		{Query: "baby bento insulated lunch box", Clicks: 20, Impressions: 200, CTR: 0.1, Position: 2},
	}
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(sampleRows(), nil, nil)

	c := New(fetcher, catalog.Default(), time.Hour)
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return fixed })

	require.Nil(t, c.Snapshot())

	err := c.Refresh(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, fixed, snap.FetchedAt)
	assert.Len(t, snap.Nodes, catalog.Default().Len())
	// rows are shared: the two queries match Insulated Lunch Boxes (1200),
	// Stainless Steel Bento (200), and Lunch Bags (1200)
	assert.Equal(t, int64(2600), snap.Aggregate.RetrievalVolume)
	assert.Empty(t, c.LastError())
	assert.Equal(t, fixed, c.LastFetchTime())
}

func TestRefreshFailureKeepsPriorSnapshot(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(sampleRows(), nil, nil)

	c := New(fetcher, catalog.Default(), time.Hour)
	require.NoError(t, c.Refresh(context.Background()))

	first := c.Snapshot()
	require.NotNil(t, first)

	fetcher.set(nil, nil, errors.New("quota exceeded"))
	err := c.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, first.ID, c.Snapshot().ID, "failed fetch must not clear the prior snapshot")
	assert.Contains(t, c.LastError(), "quota exceeded")

	// a later success clears the error
	fetcher.set(sampleRows(), nil, nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Empty(t, c.LastError())
	assert.NotEqual(t, first.ID, c.Snapshot().ID)
}

// blockingFetcher parks the first call until released, so a second refresh
// can overtake it.
type blockingFetcher struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *blockingFetcher) FetchCurrentAndPrevious(ctx context.Context, now time.Time) ([]gsc.PerformanceRow, []gsc.PerformanceRow, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()

	if call == 1 {
		close(b.started)
		<-b.release
		// stale result: a single huge row that would be obvious if published
		return []gsc.PerformanceRow{{Query: "stale", Clicks: 999, Impressions: 99999, CTR: 0.01, Position: 50}}, nil, nil
	}
	return sampleRows(), nil, nil
}

func TestRefreshSupersededByNewerFetch(t *testing.T) {
	fetcher := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(fetcher, catalog.Default(), time.Hour)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Refresh(context.Background())
	}()

	<-fetcher.started
	require.NoError(t, c.Refresh(context.Background()))
	winner := c.Snapshot()
	require.NotNil(t, winner)

	close(fetcher.release)
	err := <-errCh
	assert.ErrorIs(t, err, ErrSuperseded)

	assert.Equal(t, winner.ID, c.Snapshot().ID, "stale fetch must not overwrite the newer snapshot")
	assert.Equal(t, int64(2600), c.Snapshot().Aggregate.RetrievalVolume)
}

func TestSelection(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(sampleRows(), nil, nil)

	c := New(fetcher, catalog.Default(), time.Hour)
	require.NoError(t, c.Refresh(context.Background()))

	global := c.Displayed()
	assert.Equal(t, float64(0), global.SemanticDensity)

	require.NoError(t, c.SelectNode("Insulated Lunch Boxes"))
	assert.Equal(t, "Insulated Lunch Boxes", c.SelectedNode())

	node := c.Displayed()
	assert.Greater(t, node.SemanticDensity, float64(0))
	assert.Equal(t, int64(100), node.NonBrandedClicks)

	err := c.SelectNode("No Such Node")
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.Equal(t, "Insulated Lunch Boxes", c.SelectedNode(), "failed selection leaves state unchanged")

	require.NoError(t, c.SelectNode(""))
	restored := c.Displayed()
	assert.Equal(t, global, restored)
}

func TestSelectNodeBeforeFirstFetch(t *testing.T) {
	c := New(&stubFetcher{}, catalog.Default(), time.Hour)
	assert.ErrorIs(t, c.SelectNode("Insulated Lunch Boxes"), ErrUnknownNode)
	assert.Equal(t, "", c.SelectedNode())
}

func TestGaps(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set([]gsc.PerformanceRow{
		{Query: "how to keep soup hot in lunchbox", Clicks: 5, Impressions: 500, CTR: 0.01, Position: 4},
	}, nil, nil)

	c := New(fetcher, catalog.Default(), time.Hour)
	require.NoError(t, c.Refresh(context.Background()))

	gaps := c.Gaps()
	require.NotEmpty(t, gaps)
	found := false
	for _, g := range gaps {
		if g.Node == "Thermal Containers" {
			found = true
			assert.Equal(t, 90, g.GapScore)
		}
	}
	assert.True(t, found)
}
