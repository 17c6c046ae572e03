package metrics

import "fmt"

// Highlight is one templated strategic callout for the dashboard.
type Highlight struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Highlights are the three performance archetypes surfaced next to the
// radar: the strongest non-branded owner, the fastest climber, and the
// weakest node needing reinforcement.
type Highlights struct {
	Ownership Highlight `json:"ownership"`
	Momentum  Highlight `json:"momentum"`
	Action    Highlight `json:"action"`
}

// ComputeHighlights picks the archetype nodes from a snapshot's node
// metrics. Returns false when there are no nodes to rank.
func ComputeHighlights(nodes []NodeMetrics) (Highlights, bool) {
	if len(nodes) == 0 {
		return Highlights{}, false
	}

	topOwner := nodes[0]
	topClimber := nodes[0]
	weakest := nodes[0]
	for _, n := range nodes[1:] {
		if n.NonBrandedClicks > topOwner.NonBrandedClicks {
			topOwner = n
		}
		if n.RawMomentum > topClimber.RawMomentum {
			topClimber = n
		}
		if n.FormationScore < weakest.FormationScore {
			weakest = n
		}
	}

	return Highlights{
		Ownership: Highlight{
			Title: "Ownership Signal",
			Text: fmt.Sprintf("%s leads in non-branded discovery. This entity is successfully decoupling from brand-only searches.",
				topOwner.Name),
		},
		Momentum: Highlight{
			Title: "Momentum Alert",
			Text: fmt.Sprintf("%s shows the strongest velocity (Score: %d). Expect increased AI-overviews for this node shortly.",
				topClimber.Name, topClimber.FormationScore),
		},
		Action: Highlight{
			Title: "Next Best Action",
			Text: fmt.Sprintf("Priority: %s. Low semantic density detected. Deploy FAQ schema or supporting articles to reinforce this entity.",
				weakest.Name),
		},
	}, true
}
