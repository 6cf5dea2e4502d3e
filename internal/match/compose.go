package match

import (
	"strings"

	"medreel/internal/plan"
)

// Part weights reflect how much each plan field should drive retrieval:
// subject identity matters most, the action next, supporting keywords least.
const (
	subjectWeight  = 0.45
	actionWeight   = 0.35
	keywordsWeight = 0.20
)

// fallbackQuery is used when a plan carries no usable text at all, so the
// composer never returns an empty query set.
const fallbackQuery = "medical animation"

// QueryPart is one weighted text fragment of a composed query.
type QueryPart struct {
	Text   string
	Weight float64
}

// Compose turns a visual plan into 1–3 weighted query parts with weights
// normalized to sum to 1.0.
func Compose(vp plan.VisualPlan) []QueryPart {
	var parts []QueryPart
	if vp.PrimarySubject != "" {
		parts = append(parts, QueryPart{Text: vp.PrimarySubject, Weight: subjectWeight})
	}
	if vp.Action != "" {
		parts = append(parts, QueryPart{Text: vp.Action, Weight: actionWeight})
	}
	if len(vp.Keywords) > 0 {
		parts = append(parts, QueryPart{Text: strings.Join(vp.Keywords, " "), Weight: keywordsWeight})
	}
	if len(parts) == 0 {
		return []QueryPart{{Text: fallbackQuery, Weight: 1.0}}
	}
	return normalizeWeights(parts)
}

// normalizeWeights scales part weights to sum to 1.0. A degenerate all-zero
// total falls back to a uniform distribution.
func normalizeWeights(parts []QueryPart) []QueryPart {
	var total float64
	for _, p := range parts {
		total += p.Weight
	}
	if total == 0 {
		uniform := 1.0 / float64(len(parts))
		for i := range parts {
			parts[i].Weight = uniform
		}
		return parts
	}
	for i := range parts {
		parts[i].Weight /= total
	}
	return parts
}
