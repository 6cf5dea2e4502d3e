package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medreel/internal/plan"
)

func weightSum(parts []QueryPart) float64 {
	var total float64
	for _, p := range parts {
		total += p.Weight
	}
	return total
}

func TestComposeFullPlan(t *testing.T) {
	parts := Compose(plan.VisualPlan{
		PrimarySubject: "insulin receptor",
		Action:         "binding and signaling",
		Keywords:       []string{"hormone", "cell membrane"},
	})

	require.Len(t, parts, 3)
	assert.Equal(t, "insulin receptor", parts[0].Text)
	assert.Equal(t, "binding and signaling", parts[1].Text)
	assert.Equal(t, "hormone cell membrane", parts[2].Text)

	// Subject outweighs action outweighs keywords.
	assert.Greater(t, parts[0].Weight, parts[1].Weight)
	assert.Greater(t, parts[1].Weight, parts[2].Weight)
	assert.InDelta(t, 1.0, weightSum(parts), 1e-6)
}

func TestComposePartialPlans(t *testing.T) {
	tests := []struct {
		name string
		vp   plan.VisualPlan
		want []string
	}{
		{
			name: "subject only",
			vp:   plan.VisualPlan{PrimarySubject: "heart valve"},
			want: []string{"heart valve"},
		},
		{
			name: "action only",
			vp:   plan.VisualPlan{Action: "pumping blood"},
			want: []string{"pumping blood"},
		},
		{
			name: "keywords only",
			vp:   plan.VisualPlan{Keywords: []string{"neuron", "synapse"}},
			want: []string{"neuron synapse"},
		},
		{
			name: "subject and keywords",
			vp:   plan.VisualPlan{PrimarySubject: "lung", Keywords: []string{"alveoli"}},
			want: []string{"lung", "alveoli"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Compose(tt.vp)
			require.Len(t, parts, len(tt.want))
			for i, text := range tt.want {
				assert.Equal(t, text, parts[i].Text)
			}
			assert.InDelta(t, 1.0, weightSum(parts), 1e-6)
		})
	}
}

func TestComposeEmptyPlanFallsBack(t *testing.T) {
	parts := Compose(plan.VisualPlan{})
	require.Len(t, parts, 1)
	assert.Equal(t, fallbackQuery, parts[0].Text)
	assert.Equal(t, 1.0, parts[0].Weight)
}

func TestComposeWeightRatiosPreserved(t *testing.T) {
	parts := Compose(plan.VisualPlan{
		PrimarySubject: "kidney",
		Action:         "filtering",
	})
	require.Len(t, parts, 2)
	// 0.45 : 0.35 normalized.
	assert.InDelta(t, 0.45/0.80, parts[0].Weight, 1e-9)
	assert.InDelta(t, 0.35/0.80, parts[1].Weight, 1e-9)
}

func TestNormalizeWeightsZeroTotal(t *testing.T) {
	parts := normalizeWeights([]QueryPart{
		{Text: "a", Weight: 0},
		{Text: "b", Weight: 0},
	})
	require.Len(t, parts, 2)
	for _, p := range parts {
		assert.InDelta(t, 0.5, p.Weight, 1e-9)
	}
	assert.False(t, math.IsNaN(parts[0].Weight))
}
