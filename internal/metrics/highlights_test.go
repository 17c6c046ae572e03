package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHighlights(t *testing.T) {
	nodes := []NodeMetrics{
		{Name: "Insulated Lunch Boxes", NonBrandedClicks: 100, RawMomentum: 3, FormationScore: 62},
		{Name: "Stainless Steel Bento", NonBrandedClicks: 40, RawMomentum: 7, FormationScore: 58},
		{Name: "Thermal Containers", NonBrandedClicks: 0, RawMomentum: 0, FormationScore: 4},
	}

	h, ok := ComputeHighlights(nodes)
	require.True(t, ok)

	assert.Contains(t, h.Ownership.Text, "Insulated Lunch Boxes")
	assert.Contains(t, h.Momentum.Text, "Stainless Steel Bento")
	assert.Contains(t, h.Momentum.Text, "Score: 58")
	assert.Contains(t, h.Action.Text, "Thermal Containers")
}

func TestComputeHighlightsEmpty(t *testing.T) {
	_, ok := ComputeHighlights(nil)
	assert.False(t, ok)
}

func TestComputeHighlightsSingleNode(t *testing.T) {
	h, ok := ComputeHighlights([]NodeMetrics{{Name: "Bento", FormationScore: 50}})
	require.True(t, ok)
	assert.Contains(t, h.Ownership.Text, "Bento")
	assert.Contains(t, h.Action.Text, "Bento")
}
