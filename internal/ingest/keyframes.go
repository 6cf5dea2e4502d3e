package ingest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// maxKeyframes is the number of representative frames sampled per clip.
const maxKeyframes = 12

// keyframeSize matches the visual encoder's input resolution, so frames need
// no further resizing before embedding.
const keyframeSize = 224

// ExtractKeyframes samples up to maxKeyframes evenly spaced frames from a
// clip into outDir, pre-scaled to keyframeSize, and returns their paths in
// frame order.
func ExtractKeyframes(src, outDir string, durationS float64) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create keyframe dir: %w", err)
	}

	// Evenly spaced sampling; fall back to 1 fps when duration is unknown.
	fps := 1.0
	if durationS > 0 {
		fps = float64(maxKeyframes) / durationS
	}

	pattern := filepath.Join(outDir, "frame_%03d.jpg")
	filter := fmt.Sprintf("fps=%f,scale=%d:%d", fps, keyframeSize, keyframeSize)
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", src,
		"-vf", filter,
		"-frames:v", fmt.Sprintf("%d", maxKeyframes),
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg keyframes %s: %v: %s", src, err, out)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list keyframes: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no keyframes extracted from %s", src)
	}
	sort.Strings(matches)
	return matches, nil
}
