package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/babybento/aeo-command/internal/metrics"
)

func testSnapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Nodes: []metrics.NodeMetrics{
			{
				Name:             "Insulated Lunch Boxes",
				RetrievalLift:    12,
				BrandedClicks:    20,
				NonBrandedClicks: 100,
				SemanticDensity:  30,
				OwnershipScore:   25,
				RawMomentum:      3,
				FormationScore:   62,
			},
			{
				Name:             "Lunch Bags",
				RetrievalLift:    229,
				BrandedClicks:    5,
				NonBrandedClicks: 45,
				SemanticDensity:  15,
				OwnershipScore:   13.5,
				RawMomentum:      -1,
				FormationScore:   40,
			},
			{
				Name:          "Thermal Containers",
				RetrievalLift: 0,
			},
			{
				Name:          "Snack Containers",
				RetrievalLift: 18,
			},
			{
				Name:          "Sport Drink Bottles",
				RetrievalLift: 3,
			},
		},
	}
}

func TestSanitizeGlobalView(t *testing.T) {
	p := Sanitize(testSnapshot(), "")

	assert.Equal(t, "Global View", p.SelectedNodeContext)
	// global view sums clicks but zeroes the scores
	assert.Equal(t, "0.0%", p.SemanticDensity)
	assert.Equal(t, "0.00", p.OwnershipScore)
	// branded 25 of 170 total clicks
	assert.Equal(t, "14.7%", p.BrandedShare)
	// mean of 12, 229, 18, 3
	assert.Equal(t, "+65.5%", p.RetrievalLift)
	assert.Equal(t, "High Velocity", p.RankingMomentum)
}

func TestSanitizeSelectedNode(t *testing.T) {
	p := Sanitize(testSnapshot(), "Insulated Lunch Boxes")

	assert.Equal(t, "Insulated Lunch Boxes", p.SelectedNodeContext)
	assert.Equal(t, "30.0%", p.SemanticDensity)
	assert.Equal(t, "25.00", p.OwnershipScore)
	assert.Equal(t, "16.7%", p.BrandedShare)
}

func TestSanitizeUnknownSelectionFallsBackToGlobal(t *testing.T) {
	p := Sanitize(testSnapshot(), "No Such Node")
	assert.Equal(t, "Global View", p.SelectedNodeContext)
}

func TestSanitizeTopOpportunities(t *testing.T) {
	p := Sanitize(testSnapshot(), "")
	// top three lifts, descending, zero-lift node excluded
	assert.Equal(t, "Lunch Bags (+229.0%), Snack Containers (+18.0%), Insulated Lunch Boxes (+12.0%)", p.TopOpportunities)
}

func TestSanitizeNoOpportunities(t *testing.T) {
	snap := &metrics.Snapshot{
		Nodes: []metrics.NodeMetrics{
			{Name: "Thermal Containers", RetrievalLift: 0},
		},
	}
	p := Sanitize(snap, "")
	assert.Equal(t, "None", p.TopOpportunities)
	assert.Equal(t, "Stagnant", p.RankingMomentum)
	assert.Equal(t, "+0.0%", p.RetrievalLift)
	assert.Equal(t, "0.0%", p.BrandedShare)
}

func TestSanitizeNilSnapshot(t *testing.T) {
	p := Sanitize(nil, "anything")
	assert.Equal(t, "Global View", p.SelectedNodeContext)
	assert.Equal(t, "None", p.TopOpportunities)
}

func TestMomentumBuckets(t *testing.T) {
	tests := []struct {
		avgLift float64
		want    string
	}{
		{15, "High Velocity"},
		{10.1, "High Velocity"},
		{10, "Positive"},
		{0.5, "Positive"},
		{0, "Stagnant"},
		{-2, "Regressing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, momentumBucket(tt.avgLift), "avgLift=%v", tt.avgLift)
	}
}
