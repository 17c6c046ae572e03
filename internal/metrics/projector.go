package metrics

// Project re-derives the displayed header metrics for the given selection.
// With a node name, the node's scores are surfaced verbatim. With the empty
// name (global view), branded/non-branded become the catalog-wide sums and
// the four score fields are zero — a deliberate "N/A" sentinel, not a
// cross-node aggregate. The second return is false when a non-empty name
// does not resolve to any node.
func Project(nodes []NodeMetrics, selected string) (DisplayedMetrics, bool) {
	if selected == "" {
		var d DisplayedMetrics
		for _, n := range nodes {
			d.BrandedClicks += n.BrandedClicks
			d.NonBrandedClicks += n.NonBrandedClicks
		}
		return d, true
	}

	for _, n := range nodes {
		if n.Name == selected {
			return DisplayedMetrics{
				SelectedNode:     n.Name,
				BrandedClicks:    n.BrandedClicks,
				NonBrandedClicks: n.NonBrandedClicks,
				OwnershipScore:   n.OwnershipScore,
				SemanticDensity:  n.SemanticDensity,
				RankingMomentum:  n.RawMomentum,
				FormationScore:   n.FormationScore,
			}, true
		}
	}
	return DisplayedMetrics{}, false
}
