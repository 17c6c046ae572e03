package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
)

func TestAnalyzeGapsMissingNodeRankingHigh(t *testing.T) {
	nodes := []catalog.Node{{
		Name:     "Thermal Containers",
		TopQuery: "how to keep soup hot in lunchbox",
		URL:      "/collections/thermal-containers",
		Status:   catalog.StatusMissing,
	}}
	live := []gsc.PerformanceRow{
		row("How To Keep Soup Hot In Lunchbox", 30, 400, 4.26),
	}

	results := AnalyzeGaps(nodes, live)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 90, r.GapScore, "ranking top-10 while structurally Missing is the biggest gap")
	assert.Equal(t, 4.3, r.LivePosition, "rounded to one decimal")
	assert.Equal(t, int64(30), r.LiveClicks)
	assert.Equal(t, "Urgent: Add Product Schema / Merchant Feeds.", r.Recommendation)
}

func TestAnalyzeGapsEstablishing(t *testing.T) {
	nodes := []catalog.Node{{
		Name:     "Stainless Steel Bento",
		TopQuery: "leakproof metal bento",
		Status:   catalog.StatusEstablishing,
	}}
	live := []gsc.PerformanceRow{row("leakproof metal bento", 12, 200, 6)}

	results := AnalyzeGaps(nodes, live)
	require.Len(t, results, 1)
	assert.Equal(t, 40, results[0].GapScore)
	assert.Equal(t, "Maintain current structure.", results[0].Recommendation)
}

func TestAnalyzeGapsOptimalRankingDeep(t *testing.T) {
	nodes := []catalog.Node{{
		Name:     "Lunch Bags",
		TopQuery: "insulated lunch bags top brands",
		Status:   catalog.StatusOptimal,
	}}
	live := []gsc.PerformanceRow{row("insulated lunch bags top brands", 2, 500, 27.5)}

	results := AnalyzeGaps(nodes, live)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].GapScore)
	assert.Equal(t, "Improve content depth to match snippet authority.", results[0].Recommendation)
}

func TestAnalyzeGapsExactMatchOnly(t *testing.T) {
	// The gap check is exact top-query equality, not the fuzzy node matcher
	nodes := []catalog.Node{{
		Name:     "Thermal Containers",
		TopQuery: "how to keep soup hot in lunchbox",
		Status:   catalog.StatusMissing,
	}}
	live := []gsc.PerformanceRow{row("keep soup hot lunchbox", 30, 400, 3)}

	results := AnalyzeGaps(nodes, live)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].LivePosition)
	assert.Zero(t, results[0].GapScore)
	assert.Equal(t, "Maintain current structure.", results[0].Recommendation)
}

func TestAnalyzeGapsNoLiveRows(t *testing.T) {
	results := AnalyzeGaps(catalog.Default().Nodes(), nil)
	assert.Len(t, results, catalog.Default().Len())
	for _, r := range results {
		assert.Zero(t, r.GapScore)
	}
}
