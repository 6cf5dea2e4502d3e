package ingest

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// MediaInfo is the technical metadata probed from a clip. Fields the probe
// could not determine stay at their zero values; callers treat zero as
// unknown rather than failing.
type MediaInfo struct {
	Duration   float64
	FPS        float64
	Width      int
	Height     int
	Resolution string
	Aspect     float64
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		RFrameRat string `json:"r_frame_rate"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe on a media file and extracts duration, frame rate and
// resolution.
func Probe(path string) (MediaInfo, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	).Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(raw []byte) (MediaInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(raw, &po); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info MediaInfo
	if d, err := strconv.ParseFloat(po.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	for _, s := range po.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.FPS = parseFrameRate(s.RFrameRat)
		info.Width = s.Width
		info.Height = s.Height
		if s.Width > 0 && s.Height > 0 {
			info.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			info.Aspect = float64(s.Width) / float64(s.Height)
		}
		break
	}
	return info, nil
}

// parseFrameRate evaluates an ffprobe rational like "30000/1001". Returns 0
// for malformed or zero-denominator input.
func parseFrameRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
