package metrics

import (
	"math"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
)

const (
	densityPerQuery    = 15.0 // five matched queries saturate density at 100
	activeDensityFloor = 20.0 // density above this counts as an active node
	liftWeight         = 0.4
	rankWeight         = 0.6
)

// ComputeNodeMetrics derives the full scorecard for one node from the
// current-period rows and the previous-period rows. Missing matches
// degrade to sentinels, never to NaN or a panic.
func ComputeNodeMetrics(node catalog.Node, current, previous []gsc.PerformanceRow) NodeMetrics {
	matched := MatchNodeQueries(current, node)

	var brandedClicks, nonBrandedClicks, impressions int64
	for _, row := range matched {
		if IsBranded(row.Query) {
			brandedClicks += row.Clicks
		} else {
			nonBrandedClicks += row.Clicks
		}
		impressions += row.Impressions
	}
	totalClicks := brandedClicks + nonBrandedClicks

	ctr := 0.0
	if totalClicks > 0 && impressions > 0 {
		ctr = float64(totalClicks) / float64(impressions)
	}

	density := math.Min(100, float64(len(matched))*densityPerQuery)

	nonBrandedShare := 0.0
	if totalClicks > 0 {
		nonBrandedShare = float64(nonBrandedClicks) / float64(totalClicks)
	}
	// Both factors are bounded, so the product stays in [0,100] by
	// construction; no clamp needed.
	ownership := nonBrandedShare * density

	position := UnrankedPosition
	if rep, ok := CurrentMatch(matched); ok {
		position = rep.Position
	}
	previousPosition := UnrankedPosition
	prevMatched := false
	if prev, ok := PreviousMatch(previous, node); ok {
		previousPosition = prev.Position
		prevMatched = true
	}

	// Lower positions are better, so improvement is positive
	momentum := previousPosition - position

	trend := TrendFlat
	switch {
	case momentum > 0:
		trend = TrendUp
	case momentum < 0:
		trend = TrendDown
	}

	return NodeMetrics{
		Name:             node.Name,
		URL:              node.URL,
		Intent:           node.Intent,
		Status:           node.Status,
		RetrievalLift:    node.RetrievalLift,
		Position:         position,
		PreviousPosition: previousPosition,
		BrandedClicks:    brandedClicks,
		NonBrandedClicks: nonBrandedClicks,
		Impressions:      impressions,
		CTR:              ctr,
		SemanticDensity:  density,
		OwnershipScore:   ownership,
		RawMomentum:      momentum,
		FormationScore:   formationScore(node.RetrievalLift, position),
		MatchedQueries:   len(matched),
		Trend:            trend,
		Radar:            radarProfile(len(matched), momentum, density, node.RetrievalLift, prevMatched),
	}
}

// formationScore blends baseline lift with rank proximity to position 1.
// Both terms are individually unbounded (a huge lift can push the raw sum
// past 100), so the result is clamped at both ends before rounding.
func formationScore(retrievalLift, position float64) int {
	raw := retrievalLift*liftWeight + (100-position)*rankWeight
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return int(math.Round(raw))
}

func radarProfile(matchCount int, momentum, density, lift float64, prevMatched bool) RadarProfile {
	overlap := 20.0
	if matchCount > 0 {
		overlap = 80.0
	}
	stability := 30.0
	if prevMatched {
		stability = 90.0
	}
	return RadarProfile{
		Overlap:   overlap,
		Momentum:  50 + momentum*5,
		Diversity: density,
		Lift:      lift,
		Stability: stability,
	}
}

// ComputeAggregate derives the cross-node KPIs for one period's node
// metrics. SelectionEfficiency is the single BEST per-node CTR — a
// best-case headline figure, not an average.
func ComputeAggregate(nodes []NodeMetrics) AggregateMetrics {
	var agg AggregateMetrics

	var activeCount int
	var positionSum float64

	for _, n := range nodes {
		if n.CTR > agg.SelectionEfficiency {
			agg.SelectionEfficiency = n.CTR
		}
		agg.RetrievalVolume += n.Impressions
		if n.SemanticDensity > 0 {
			activeCount++
			positionSum += n.Position
		}
		if n.SemanticDensity > activeDensityFloor {
			agg.KnowledgeNodesActive++
		}
	}

	if activeCount > 0 {
		agg.ModelAuthority = positionSum / float64(activeCount)
	}
	return agg
}

// ComputeBreakdown buckets nodes by lifecycle status into rounded
// percentages. "Buoyant" is the dashboard label for Optimal.
func ComputeBreakdown(nodes []NodeMetrics) StatusBreakdown {
	total := len(nodes)
	if total == 0 {
		total = 1
	}
	var buoyant, establishing, missing int
	for _, n := range nodes {
		switch n.Status {
		case catalog.StatusOptimal:
			buoyant++
		case catalog.StatusEstablishing, catalog.StatusOptimizing:
			establishing++
		case catalog.StatusMissing:
			missing++
		}
	}
	pct := func(count int) int {
		return int(math.Round(float64(count) / float64(total) * 100))
	}
	return StatusBreakdown{
		BuoyantPct:      pct(buoyant),
		EstablishingPct: pct(establishing),
		MissingPct:      pct(missing),
	}
}

// ComputeAll runs the full derivation pipeline over one current+previous
// window pair. It is a pure function: identical inputs always produce an
// identical result (the snapshot ID and fetch time are stamped by the
// collector, not here).
func ComputeAll(current, previous []gsc.PerformanceRow, cat *catalog.Catalog) Snapshot {
	catNodes := cat.Nodes()

	nodes := make([]NodeMetrics, 0, len(catNodes))
	prevNodes := make([]NodeMetrics, 0, len(catNodes))
	for _, cn := range catNodes {
		nodes = append(nodes, ComputeNodeMetrics(cn, current, previous))
		// Historical KPIs use current-period-style fields only: the
		// previous window is treated as its own standalone period.
		prevNodes = append(prevNodes, ComputeNodeMetrics(cn, previous, nil))
	}

	return Snapshot{
		Nodes:     nodes,
		Aggregate: ComputeAggregate(nodes),
		Previous:  ComputeAggregate(prevNodes),
		Breakdown: ComputeBreakdown(nodes),
	}
}
