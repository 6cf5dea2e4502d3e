package encoder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/tokenizer"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, norm(v), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalizeAlreadyUnit(t *testing.T) {
	v := Normalize([]float32{1, 0, 0})
	assert.Equal(t, []float32{1, 0, 0}, v)
}

func TestMean(t *testing.T) {
	got := Mean([][]float32{
		{1, 2, 3},
		{3, 4, 5},
	})
	assert.Equal(t, []float32{2, 3, 4}, got)
}

func TestMeanSingleVectorCopies(t *testing.T) {
	in := []float32{1, 2}
	got := Mean([][]float32{in})
	assert.Equal(t, in, got)
	got[0] = 99
	assert.Equal(t, float32(1), in[0])
}

func TestMeanEmpty(t *testing.T) {
	assert.Nil(t, Mean(nil))
}

func TestPadTokenBatch(t *testing.T) {
	encs := []tokenizer.Encoding{
		{Ids: []int{101, 7, 102}, AttentionMask: []int{1, 1, 1}},
		{Ids: []int{101, 102}, AttentionMask: []int{1, 1}},
	}
	ids, mask, maxLen := padTokenBatch(encs)
	assert.Equal(t, int64(3), maxLen)
	assert.Equal(t, []int64{101, 7, 102, 101, 102, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0}, mask)
}

func TestPadTokenBatchEmptyEncodings(t *testing.T) {
	ids, mask, maxLen := padTokenBatch([]tokenizer.Encoding{{}})
	assert.Equal(t, int64(1), maxLen)
	assert.Equal(t, []int64{0}, ids)
	assert.Equal(t, []int64{0}, mask)
}

func TestLoadTextMissingModelDir(t *testing.T) {
	_, err := LoadText(t.TempDir())
	require.ErrorIs(t, err, ErrModelUnavailable)
}
