// Package ingest adds clips to the library index: content checksum, media
// probe, keyframe extraction, keyframe embedding, and the index append.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medreel/internal/encoder"
	"medreel/internal/library"
)

// idLength is the checksum prefix length used as the clip id. Identical
// bytes always yield the same id.
const idLength = 16

// FrameEmbedder embeds keyframe image files into clip vectors. Implemented
// by encoder.ImageEncoder.
type FrameEmbedder interface {
	EncodeFiles(paths []string) ([][]float32, error)
}

// Ingester adds clips to a library. Appends go through the library one at a
// time; run a single Ingester per index.
type Ingester struct {
	lib       *library.Library
	embedder  FrameEmbedder
	assetsDir string
	framesDir string
	source    string
}

// New creates an ingester that copies clips into assetsDir, extracts
// keyframes under framesDir, and appends to lib with the given source tag.
func New(lib *library.Library, embedder FrameEmbedder, assetsDir, framesDir, source string) *Ingester {
	if source == "" {
		source = "library"
	}
	return &Ingester{
		lib:       lib,
		embedder:  embedder,
		assetsDir: assetsDir,
		framesDir: framesDir,
		source:    source,
	}
}

// IngestFile ingests one clip: it is copied into the assets directory,
// probed, embedded from its keyframes, and appended to the index.
// Re-ingesting identical bytes fails with library.ErrDuplicateClip.
func (ing *Ingester) IngestFile(src string) (library.ClipRecord, error) {
	sum, err := checksumFile(src)
	if err != nil {
		return library.ClipRecord{}, err
	}
	if ing.lib.HasChecksum(sum) {
		return library.ClipRecord{}, fmt.Errorf("%w: %s", library.ErrDuplicateClip, filepath.Base(src))
	}

	dst, err := ing.copyIntoAssets(src)
	if err != nil {
		return library.ClipRecord{}, err
	}

	info, err := Probe(dst)
	if err != nil {
		return library.ClipRecord{}, err
	}

	frameDir := filepath.Join(ing.framesDir, sum[:8])
	frames, err := ExtractKeyframes(dst, frameDir, info.Duration)
	if err != nil {
		return library.ClipRecord{}, err
	}

	vec, err := ing.embedFrames(frames)
	if err != nil {
		return library.ClipRecord{}, err
	}

	rec := library.ClipRecord{
		ID:         sum[:idLength],
		URI:        filepath.Base(dst),
		Title:      strings.TrimSuffix(filepath.Base(dst), filepath.Ext(dst)),
		Source:     ing.source,
		Duration:   info.Duration,
		FPS:        info.FPS,
		Resolution: info.Resolution,
		Aspect:     info.Aspect,
		Checksum:   sum,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := ing.lib.Append(rec, vec); err != nil {
		return library.ClipRecord{}, err
	}
	return rec, nil
}

// embedFrames embeds each keyframe, averages the normalized per-frame
// vectors, and re-normalizes the mean into the clip's single vector.
func (ing *Ingester) embedFrames(frames []string) ([]float32, error) {
	vecs, err := ing.embedder.EncodeFiles(frames)
	if err != nil {
		return nil, fmt.Errorf("embed keyframes: %w", err)
	}
	return encoder.Normalize(encoder.Mean(vecs)), nil
}

// copyIntoAssets copies src into the assets directory unless it already
// lives there.
func (ing *Ingester) copyIntoAssets(src string) (string, error) {
	if err := os.MkdirAll(ing.assetsDir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir: %w", err)
	}
	dst := filepath.Join(ing.assetsDir, filepath.Base(src))

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return "", err
	}
	if absSrc == absDst {
		return dst, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy clip: %w", err)
	}
	return dst, out.Close()
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum clip: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
