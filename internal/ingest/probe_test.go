package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "5.200000"},
		"streams": [
			{"codec_type": "audio", "r_frame_rate": "0/0"},
			{"codec_type": "video", "r_frame_rate": "30000/1001", "width": 1920, "height": 1080}
		]
	}`)
	info, err := parseProbe(raw)
	require.NoError(t, err)
	assert.InDelta(t, 5.2, info.Duration, 1e-9)
	assert.InDelta(t, 29.97, info.FPS, 0.001)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, "1920x1080", info.Resolution)
	assert.InDelta(t, 16.0/9.0, info.Aspect, 1e-9)
}

func TestParseProbeMissingFields(t *testing.T) {
	info, err := parseProbe([]byte(`{"format": {}, "streams": []}`))
	require.NoError(t, err)
	assert.Zero(t, info.Duration)
	assert.Zero(t, info.FPS)
	assert.Empty(t, info.Resolution)
}

func TestParseProbeInvalidJSON(t *testing.T) {
	_, err := parseProbe([]byte("not json"))
	require.Error(t, err)
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
		{"a/b", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseFrameRate(tt.in), 1e-9, tt.in)
	}
}
