// Package match is the clip retrieval core: it composes a weighted text
// query from a visual plan, embeds it, and ranks the library by cosine
// similarity with a duration-aware penalty.
package match

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"medreel/internal/library"
	"medreel/internal/plan"
)

// ErrEmptyLibrary is returned when the caller requires a result but the
// library has no indexed clips.
var ErrEmptyLibrary = errors.New("library has no indexed clips")

// DefaultTopK is the number of takes returned when no K is requested.
const DefaultTopK = 3

// durationPenaltyWeight scales the duration-mismatch penalty subtracted from
// the raw similarity score.
const durationPenaltyWeight = 0.05

// Encoder embeds a batch of texts into unit-length vectors. Implemented by
// encoder.TextEncoder.
type Encoder interface {
	Encode(texts []string) ([][]float32, error)
}

// Take is one ranked candidate clip for a plan. Metadata is a snapshot of
// the clip record at query time.
type Take struct {
	Source     string             `json:"source"`
	ClipID     string             `json:"clip_id"`
	ClipURI    string             `json:"clip_uri"`
	Duration   float64            `json:"duration"`
	Similarity float64            `json:"similarity"`
	Metadata   library.ClipRecord `json:"metadata"`
}

// Options tune a single match call.
type Options struct {
	// K is the number of takes to return. Zero means DefaultTopK.
	K int
	// MinSimilarity drops pool candidates whose adjusted score falls below
	// this floor. Zero disables the filter.
	MinSimilarity float64
	// RequireResult makes an empty library an error instead of an empty
	// result.
	RequireResult bool
}

// Match returns the top-K takes for a visual plan, deterministically: equal
// adjusted scores are broken by index row order. The result is empty only if
// the library is empty or the similarity floor removed every candidate.
func Match(enc Encoder, vp plan.VisualPlan, lib *library.Library, opts Options) ([]Take, error) {
	k := opts.K
	if k <= 0 {
		k = DefaultTopK
	}

	if lib.Len() == 0 {
		if opts.RequireResult {
			return nil, ErrEmptyLibrary
		}
		return nil, nil
	}

	parts := Compose(vp)
	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.Text
	}
	embs, err := enc.Encode(texts)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(embs) != len(parts) {
		return nil, fmt.Errorf("encode query: got %d embeddings for %d parts", len(embs), len(parts))
	}

	qvec := weightedQueryVector(parts, embs)

	clips := lib.Clips()
	scores := make([]float64, len(clips))
	for i := range clips {
		scores[i] = dot(qvec, clips[i].Vector)
	}
	applyDurationPenalty(scores, clips, vp.DurationS)

	pool := candidatePool(scores, k)

	takes := make([]Take, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, i := range pool {
		c := clips[i]
		if opts.MinSimilarity != 0 && scores[i] < opts.MinSimilarity {
			continue
		}
		// Dedupe by content checksum in case the index carries duplicates.
		if c.Checksum != "" && seen[c.Checksum] {
			continue
		}
		seen[c.Checksum] = true
		takes = append(takes, Take{
			Source:     c.Source,
			ClipID:     c.ID,
			ClipURI:    c.URI,
			Duration:   c.Duration,
			Similarity: scores[i],
			Metadata:   c.ClipRecord,
		})
	}

	sort.SliceStable(takes, func(a, b int) bool {
		return takes[a].Similarity > takes[b].Similarity
	})
	if len(takes) > k {
		takes = takes[:k]
	}
	return takes, nil
}

// weightedQueryVector combines per-part embeddings into one query vector by
// weighted sum, re-normalized to unit length to guard against float drift.
func weightedQueryVector(parts []QueryPart, embs [][]float32) []float32 {
	dim := len(embs[0])
	acc := make([]float64, dim)
	for i, p := range parts {
		for j, v := range embs[i] {
			acc[j] += p.Weight * float64(v)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm) + 1e-9

	out := make([]float32, dim)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

// applyDurationPenalty subtracts a small penalty from each clip's score for
// duration mismatch against the plan's requested duration. Clips with
// unknown (zero) duration get the full mismatch penalty, pushing them down
// without excluding them.
func applyDurationPenalty(scores []float64, clips []library.Clip, targetS float64) {
	if targetS <= 0 {
		return
	}
	target := math.Max(targetS, 0.1)
	for i := range clips {
		pen := math.Abs(clips[i].Duration-target) / target
		if pen > 1 {
			pen = 1
		}
		scores[i] -= durationPenaltyWeight * pen
	}
}

// candidatePool returns the indices of the top max(4K, K) clips by adjusted
// score, ties broken by row order. The over-fetched pool exists so filters
// like the similarity floor and dedupe run before the final truncation.
func candidatePool(scores []float64, k int) []int {
	size := 4 * k
	if size < k {
		size = k
	}
	if size > len(scores) {
		size = len(scores)
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx[:size]
}

func dot(a []float32, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
