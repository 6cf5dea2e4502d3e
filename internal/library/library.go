// Package library holds the clip index: one record and one embedding vector
// per ingested clip. In memory the index is a single collection of clips,
// each carrying its own vector; on disk it is persisted as three row-aligned
// artifacts (metadata table, vector matrix, id list) whose row counts must
// always agree.
package library

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrCorruptIndex means the persisted artifacts disagree on row count
	// or id order and the index cannot be trusted.
	ErrCorruptIndex = errors.New("corrupt library index")
	// ErrDimensionMismatch means an appended vector's length does not match
	// the index's embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDuplicateClip means a clip with the same content checksum is
	// already indexed.
	ErrDuplicateClip = errors.New("clip already indexed")
)

// Persisted artifact names inside the library directory.
const (
	tableFile   = "clips.jsonl"
	vectorsFile = "vectors.bin"
	idsFile     = "ids.json"
)

// ClipRecord is the metadata row for one indexed clip.
type ClipRecord struct {
	ID             string   `json:"id"`
	URI            string   `json:"uri"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Source         string   `json:"source"`
	Duration       float64  `json:"duration"`
	FPS            float64  `json:"fps,omitempty"`
	Resolution     string   `json:"resolution,omitempty"`
	Aspect         float64  `json:"aspect,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Checksum       string   `json:"checksum"`
	PrimarySubject string   `json:"primary_subject,omitempty"`
	Anatomy        string   `json:"anatomy,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	Sensitivity    string   `json:"sensitivity,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// Clip is one indexed entry: its metadata row plus its embedding vector.
type Clip struct {
	ClipRecord
	Vector []float32
}

// Library is the loaded clip index. The matcher reads it; the ingestion
// pipeline is the sole writer, and appends must be serialized by the caller.
type Library struct {
	dir        string
	dim        int
	clips      []Clip
	byChecksum map[string]int
}

// Load reads the library from dir. A directory with none of the three
// artifacts yields an empty library; a partial or row-misaligned set of
// artifacts fails with ErrCorruptIndex.
func Load(dir string) (*Library, error) {
	lib := &Library{dir: dir, byChecksum: make(map[string]int)}

	records, haveTable, err := readTable(filepath.Join(dir, tableFile))
	if err != nil {
		return nil, err
	}
	vectors, dim, haveVectors, err := readVectors(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	ids, haveIDs, err := readIDs(filepath.Join(dir, idsFile))
	if err != nil {
		return nil, err
	}

	if !haveTable && !haveVectors && !haveIDs {
		return lib, nil
	}
	if !haveTable || !haveVectors || !haveIDs {
		return nil, fmt.Errorf("%w: missing artifacts in %s", ErrCorruptIndex, dir)
	}
	if len(records) != len(vectors) || len(records) != len(ids) {
		return nil, fmt.Errorf("%w: %d table rows, %d vectors, %d ids",
			ErrCorruptIndex, len(records), len(vectors), len(ids))
	}

	lib.dim = dim
	lib.clips = make([]Clip, len(records))
	for i, rec := range records {
		if rec.ID != ids[i] {
			return nil, fmt.Errorf("%w: row %d id %q does not match id list entry %q",
				ErrCorruptIndex, i, rec.ID, ids[i])
		}
		lib.clips[i] = Clip{ClipRecord: rec, Vector: vectors[i]}
		lib.byChecksum[rec.Checksum] = i
	}
	return lib, nil
}

// Len returns the number of indexed clips.
func (l *Library) Len() int { return len(l.clips) }

// Dim returns the embedding dimension, or 0 for an empty library.
func (l *Library) Dim() int { return l.dim }

// Clips returns the indexed clips in row order. The slice is shared; callers
// must not mutate it.
func (l *Library) Clips() []Clip { return l.clips }

// Vectors returns the embedding rows in clip order for bulk similarity
// computation, without copying.
func (l *Library) Vectors() [][]float32 {
	out := make([][]float32, len(l.clips))
	for i := range l.clips {
		out[i] = l.clips[i].Vector
	}
	return out
}

// HasChecksum reports whether a clip with this content checksum is indexed.
func (l *Library) HasChecksum(sum string) bool {
	_, ok := l.byChecksum[sum]
	return ok
}

// Append adds one clip and its embedding to the index and persists all three
// artifacts. On any failure the in-memory state and the persisted artifacts
// are left at their pre-append row counts.
func (l *Library) Append(rec ClipRecord, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if l.dim != 0 && len(vec) != l.dim {
		return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vec), l.dim)
	}
	if _, ok := l.byChecksum[rec.Checksum]; ok {
		return fmt.Errorf("%w: checksum %s", ErrDuplicateClip, rec.Checksum)
	}

	l.clips = append(l.clips, Clip{ClipRecord: rec, Vector: vec})
	prevDim := l.dim
	l.dim = len(vec)

	if err := l.save(); err != nil {
		l.clips = l.clips[:len(l.clips)-1]
		l.dim = prevDim
		return err
	}
	l.byChecksum[rec.Checksum] = len(l.clips) - 1
	return nil
}

// save writes all three artifacts to temporary files first and only then
// moves them into place, so a crash mid-write never leaves a partial index.
func (l *Library) save() error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}

	records := make([]ClipRecord, len(l.clips))
	ids := make([]string, len(l.clips))
	vectors := make([][]float32, len(l.clips))
	for i, c := range l.clips {
		records[i] = c.ClipRecord
		ids[i] = c.ID
		vectors[i] = c.Vector
	}

	paths := [3]string{
		filepath.Join(l.dir, tableFile),
		filepath.Join(l.dir, vectorsFile),
		filepath.Join(l.dir, idsFile),
	}
	writers := [3]func(string) error{
		func(p string) error { return writeTable(p, records) },
		func(p string) error { return writeVectors(p, vectors, l.dim) },
		func(p string) error { return writeIDs(p, ids) },
	}

	tmps := make([]string, 0, 3)
	cleanup := func() {
		for _, t := range tmps {
			os.Remove(t)
		}
	}
	for i, p := range paths {
		tmp := p + ".tmp"
		if err := writers[i](tmp); err != nil {
			cleanup()
			return err
		}
		tmps = append(tmps, tmp)
	}
	for i, p := range paths {
		if err := os.Rename(tmps[i], p); err != nil {
			cleanup()
			return fmt.Errorf("replace %s: %w", p, err)
		}
	}
	return nil
}

func readTable(path string) ([]ClipRecord, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	var records []ClipRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec ClipRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, false, fmt.Errorf("%w: table line %d: %v", ErrCorruptIndex, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("read table: %w", err)
	}
	return records, true, nil
}

func writeTable(path string, records []ClipRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return fmt.Errorf("write table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	return f.Close()
}

func readIDs(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read id list: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, fmt.Errorf("%w: id list: %v", ErrCorruptIndex, err)
	}
	return ids, true, nil
}

func writeIDs(path string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal id list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write id list: %w", err)
	}
	return nil
}
