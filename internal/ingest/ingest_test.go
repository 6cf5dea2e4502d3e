package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medreel/internal/library"
)

func TestChecksumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video bytes"), 0o644))

	sum, err := checksumFile(path)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("video bytes"))
	assert.Equal(t, hex.EncodeToString(want[:]), sum)
}

func TestChecksumFileMissing(t *testing.T) {
	_, err := checksumFile(filepath.Join(t.TempDir(), "nope.mp4"))
	require.Error(t, err)
}

func TestCopyIntoAssets(t *testing.T) {
	srcDir, assetsDir := t.TempDir(), filepath.Join(t.TempDir(), "assets")
	src := filepath.Join(srcDir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	ing := &Ingester{assetsDir: assetsDir}
	dst, err := ing.copyIntoAssets(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(assetsDir, "clip.mp4"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
}

func TestCopyIntoAssetsAlreadyInPlace(t *testing.T) {
	assetsDir := t.TempDir()
	src := filepath.Join(assetsDir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	ing := &Ingester{assetsDir: assetsDir}
	dst, err := ing.copyIntoAssets(src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
}

func TestIngestFileRejectsKnownChecksum(t *testing.T) {
	lib, err := library.Load(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	sum, err := checksumFile(src)
	require.NoError(t, err)
	require.NoError(t, lib.Append(library.ClipRecord{
		ID:       sum[:idLength],
		Checksum: sum,
	}, []float32{1, 0}))

	ing := New(lib, nil, t.TempDir(), t.TempDir(), "test")
	_, err = ing.IngestFile(src)
	require.ErrorIs(t, err, library.ErrDuplicateClip)
	assert.Equal(t, 1, lib.Len())
}

func TestNewDefaultsSource(t *testing.T) {
	ing := New(nil, nil, "a", "k", "")
	assert.Equal(t, "library", ing.source)
}
