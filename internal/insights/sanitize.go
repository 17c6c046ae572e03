package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/babybento/aeo-command/internal/metrics"
)

// Payload is the flat, string-only view of the dashboard handed to a
// narrative provider. Every number is pre-formatted so the model cannot
// misread precision, and no raw search queries are included.
type Payload struct {
	SemanticDensity     string `json:"semanticDensity"`
	RankingMomentum     string `json:"rankingMomentum"`
	OwnershipScore      string `json:"ownershipScore"`
	RetrievalLift       string `json:"retrievalLift"`
	BrandedShare        string `json:"brandedShare"`
	TopOpportunities    string `json:"topOpportunities"`
	SelectedNodeContext string `json:"selectedNodeContext"`
}

// Sanitize builds the provider payload for the current selection. An
// unknown selection falls back to the global view.
func Sanitize(snap *metrics.Snapshot, selected string) Payload {
	if snap == nil {
		return Payload{
			SemanticDensity:     "0.0%",
			RankingMomentum:     "Stagnant",
			OwnershipScore:      "0.00",
			RetrievalLift:       "+0.0%",
			BrandedShare:        "0.0%",
			TopOpportunities:    "None",
			SelectedNodeContext: "Global View",
		}
	}

	displayed, ok := metrics.Project(snap.Nodes, selected)
	if !ok {
		displayed, _ = metrics.Project(snap.Nodes, "")
		selected = ""
	}

	avgLift := averageNonzeroLift(snap.Nodes)

	totalClicks := displayed.BrandedClicks + displayed.NonBrandedClicks
	brandedShare := 0.0
	if totalClicks > 0 {
		brandedShare = float64(displayed.BrandedClicks) / float64(totalClicks) * 100
	}

	context := "Global View"
	if selected != "" {
		context = selected
	}

	return Payload{
		SemanticDensity:     fmt.Sprintf("%.1f%%", displayed.SemanticDensity),
		RankingMomentum:     momentumBucket(avgLift),
		OwnershipScore:      fmt.Sprintf("%.2f", displayed.OwnershipScore),
		RetrievalLift:       fmt.Sprintf("%+.1f%%", avgLift),
		BrandedShare:        fmt.Sprintf("%.1f%%", brandedShare),
		TopOpportunities:    topOpportunities(snap.Nodes),
		SelectedNodeContext: context,
	}
}

// averageNonzeroLift is the mean retrieval lift over nodes that have any,
// zero when none do.
func averageNonzeroLift(nodes []metrics.NodeMetrics) float64 {
	var sum float64
	var count int
	for _, n := range nodes {
		if n.RetrievalLift != 0 {
			sum += n.RetrievalLift
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func momentumBucket(avgLift float64) string {
	switch {
	case avgLift > 10:
		return "High Velocity"
	case avgLift > 0:
		return "Positive"
	case avgLift < 0:
		return "Regressing"
	default:
		return "Stagnant"
	}
}

// topOpportunities lists up to three nodes by retrieval lift, highest
// first, skipping nodes with no lift.
func topOpportunities(nodes []metrics.NodeMetrics) string {
	withLift := make([]metrics.NodeMetrics, 0, len(nodes))
	for _, n := range nodes {
		if n.RetrievalLift != 0 {
			withLift = append(withLift, n)
		}
	}
	if len(withLift) == 0 {
		return "None"
	}
	sort.SliceStable(withLift, func(i, j int) bool {
		return withLift[i].RetrievalLift > withLift[j].RetrievalLift
	})
	if len(withLift) > 3 {
		withLift = withLift[:3]
	}
	parts := make([]string, 0, len(withLift))
	for _, n := range withLift {
		parts = append(parts, fmt.Sprintf("%s (%+.1f%%)", n.Name, n.RetrievalLift))
	}
	return strings.Join(parts, ", ")
}
