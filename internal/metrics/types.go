// Package metrics derives AEO health scores from raw per-query search
// performance rows and the knowledge-node catalog. Everything here is a
// pure function over its inputs: the collector calls ComputeAll whenever a
// fresh pair of reporting windows arrives and publishes the resulting
// Snapshot wholesale.
package metrics

import (
	"time"

	"github.com/babybento/aeo-command/internal/catalog"
)

// UnrankedPosition is the sentinel ranking position used when a node has no
// matching query row in a period. It reads as "effectively unranked", not a
// real SERP position.
const UnrankedPosition = 100.0

// Trend is the direction of a node's ranking movement between periods.
type Trend string

const (
	TrendUp   Trend = "Up"
	TrendDown Trend = "Down"
	TrendFlat Trend = "Flat"
)

// RadarProfile holds the fixed radar-chart axes derived for one node.
type RadarProfile struct {
	Overlap   float64 `json:"overlap"`   // 80 with any match, 20 without
	Momentum  float64 `json:"momentum"`  // centered at 50, ±5 per position
	Diversity float64 `json:"diversity"` // = semantic density
	Lift      float64 `json:"lift"`      // = catalog retrieval lift
	Stability float64 `json:"stability"` // 90 with a previous-period match, 30 without
}

// NodeMetrics is the full derived scorecard for one knowledge node over a
// current+previous window pair. Recomputed from scratch on every fetch.
type NodeMetrics struct {
	Name             string         `json:"name"`
	URL              string         `json:"url"`
	Intent           string         `json:"intent"`
	Status           catalog.Status `json:"status"`
	RetrievalLift    float64        `json:"retrieval_lift"`
	Position         float64        `json:"position"`
	PreviousPosition float64        `json:"previous_position"`
	BrandedClicks    int64          `json:"branded_clicks"`
	NonBrandedClicks int64          `json:"non_branded_clicks"`
	Impressions      int64          `json:"impressions"`
	CTR              float64        `json:"ctr"`                // 0..1
	SemanticDensity  float64        `json:"semantic_density"`   // 0..100
	OwnershipScore   float64        `json:"ownership_score"`    // 0..100
	RawMomentum      float64        `json:"raw_momentum"`       // positive = improved
	FormationScore   int            `json:"formation_score"`    // 0..100
	MatchedQueries   int            `json:"matched_queries"`
	Trend            Trend          `json:"trend"`
	Radar            RadarProfile   `json:"radar"`
}

// AggregateMetrics holds the cross-node KPIs for a single period.
type AggregateMetrics struct {
	SelectionEfficiency  float64 `json:"selection_efficiency"`   // best per-node CTR, 0..1
	ModelAuthority       float64 `json:"model_authority"`        // mean position over active nodes
	RetrievalVolume      int64   `json:"retrieval_volume"`       // total impressions
	KnowledgeNodesActive int     `json:"knowledge_nodes_active"` // density > 20
}

// StatusBreakdown is the share of nodes per lifecycle bucket, in rounded
// whole percentages.
type StatusBreakdown struct {
	BuoyantPct      int `json:"buoyant_pct"`      // Optimal
	EstablishingPct int `json:"establishing_pct"` // Establishing or Optimizing
	MissingPct      int `json:"missing_pct"`      // Missing
}

// Snapshot is the complete derived state for one fetch. It replaces the
// previous snapshot atomically; nothing is merged or retained across
// fetches.
type Snapshot struct {
	ID         string           `json:"id"`
	FetchedAt  time.Time        `json:"fetched_at"`
	Nodes      []NodeMetrics    `json:"nodes"`
	Aggregate  AggregateMetrics `json:"aggregate"`
	Previous   AggregateMetrics `json:"previous"`
	Breakdown  StatusBreakdown  `json:"breakdown"`
}

// DisplayedMetrics is what the dashboard header shows for the current
// selection: one node's scores verbatim, or the global totals.
type DisplayedMetrics struct {
	SelectedNode     string  `json:"selected_node,omitempty"`
	BrandedClicks    int64   `json:"branded_clicks"`
	NonBrandedClicks int64   `json:"non_branded_clicks"`
	OwnershipScore   float64 `json:"ownership_score"`
	SemanticDensity  float64 `json:"semantic_density"`
	RankingMomentum  float64 `json:"ranking_momentum"`
	FormationScore   int     `json:"formation_score"`
}
