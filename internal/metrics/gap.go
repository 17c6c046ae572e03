package metrics

import (
	"math"
	"strings"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
)

// GapResult flags nodes whose live ranking and AEO status disagree: a page
// that already ranks well but is still structurally "Missing" is the
// highest-priority schema work.
type GapResult struct {
	Node           string         `json:"node"`
	URL            string         `json:"url"`
	Status         catalog.Status `json:"status"`
	LivePosition   float64        `json:"live_position"`
	LiveClicks     int64          `json:"live_clicks"`
	GapScore       int            `json:"gap_score"` // 0-100, higher = higher priority
	Recommendation string         `json:"recommendation"`
}

// AnalyzeGaps scores every catalog node against the live rows. Unlike the
// fuzzy node matcher, the gap check requires the live query to equal the
// node's curated top query exactly (case-insensitive): it asks "is THE
// query we optimized for ranking?", not "is the topic visible at all?".
func AnalyzeGaps(nodes []catalog.Node, live []gsc.PerformanceRow) []GapResult {
	results := make([]GapResult, 0, len(nodes))
	for _, node := range nodes {
		var livePos float64
		var liveClicks int64
		for _, row := range live {
			if strings.EqualFold(row.Query, node.TopQuery) {
				livePos = row.Position
				liveClicks = row.Clicks
				break
			}
		}

		gapScore := 0
		if livePos > 0 && livePos < 10 {
			switch node.Status {
			case catalog.StatusMissing:
				gapScore = 90
			case catalog.StatusEstablishing:
				gapScore = 40
			}
		}

		recommendation := "Maintain current structure."
		if gapScore > 50 {
			recommendation = "Urgent: Add Product Schema / Merchant Feeds."
		}
		if livePos > 20 && node.Status == catalog.StatusOptimal {
			recommendation = "Improve content depth to match snippet authority."
		}

		results = append(results, GapResult{
			Node:           node.Name,
			URL:            node.URL,
			Status:         node.Status,
			LivePosition:   math.Round(livePos*10) / 10,
			LiveClicks:     liveClicks,
			GapScore:       gapScore,
			Recommendation: recommendation,
		})
	}
	return results
}
