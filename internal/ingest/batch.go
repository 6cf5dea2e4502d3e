package ingest

import (
	"errors"
	"fmt"
	"os"

	"medreel/internal/library"
	"medreel/internal/walker"
)

// videoExts are the clip container formats accepted for batch ingestion.
var videoExts = map[string]bool{
	"mp4":  true,
	"mov":  true,
	"mkv":  true,
	"webm": true,
	"avi":  true,
}

// Stats reports the outcome of a batch ingestion run.
type Stats struct {
	FilesTotal int
	Ingested   int
	Duplicates int
	Failed     int
}

// IngestDir walks root for video files and ingests each one. The index
// append is inherently single-writer, so clips are processed one at a time;
// duplicates and per-file failures are counted and reported, not fatal.
func (ing *Ingester) IngestDir(root string) (*Stats, error) {
	files, errs := walker.Walk(root, videoExts)

	var stats Stats
	for fi := range files {
		stats.FilesTotal++
		rec, err := ing.IngestFile(fi.Path)
		switch {
		case errors.Is(err, library.ErrDuplicateClip):
			stats.Duplicates++
		case err != nil:
			stats.Failed++
			fmt.Fprintf(os.Stderr, "ingest error %s: %v\n", fi.RelPath, err)
		default:
			stats.Ingested++
			fmt.Printf("  indexed %s  (%s, %.1fs)\n", fi.RelPath, rec.ID, rec.Duration)
		}
	}

	if err := <-errs; err != nil {
		return &stats, fmt.Errorf("walk error: %w", err)
	}
	return &stats, nil
}
