package edl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medreel/internal/match"
	"medreel/internal/project"
)

func item(scene string, pos int, id string, narrS, clipS float64) project.SentenceItem {
	it := project.SentenceItem{
		ID:        id,
		SceneKey:  scene,
		Position:  pos,
		Text:      "narration for " + id,
		TTSPath:   "tts/" + id + ".mp3",
		DurationS: narrS,
	}
	if clipS > 0 {
		it.AcceptedTake = &match.Take{
			ClipID:   "clip-" + id,
			ClipURI:  "assets/clip-" + id + ".mp4",
			Duration: clipS,
		}
	}
	return it
}

func TestBuildOrdersScenesAndPositions(t *testing.T) {
	items := []project.SentenceItem{
		item("scene-2", 0, "s2a", 4.0, 5.0),
		item("scene-1", 1, "s1b", 4.0, 5.0),
		item("scene-1", 0, "s1a", 4.0, 5.0),
	}
	got := Build(items)
	require.Len(t, got.Video, 3)
	assert.Equal(t, "s1a", got.Video[0].SentenceID)
	assert.Equal(t, "s1b", got.Video[1].SentenceID)
	assert.Equal(t, "s2a", got.Video[2].SentenceID)
}

func TestBuildCursorUsesLongerOfClipAndNarration(t *testing.T) {
	items := []project.SentenceItem{
		item("scene-1", 0, "a", 6.0, 4.0), // narration longer
		item("scene-1", 1, "b", 4.0, 7.0), // clip longer
		item("scene-1", 2, "c", 5.0, 5.0),
	}
	got := Build(items)
	require.Len(t, got.Video, 3)
	assert.Equal(t, 0.0, got.Video[0].Start)
	assert.Equal(t, 6.0, got.Video[1].Start)
	assert.Equal(t, 13.0, got.Video[2].Start)

	require.Len(t, got.Audio, 3)
	for i := range got.Video {
		assert.Equal(t, got.Video[i].Start, got.Audio[i].Start)
	}
}

func TestBuildSkipsUnfinishedSentences(t *testing.T) {
	items := []project.SentenceItem{
		item("scene-1", 0, "ready", 4.0, 5.0),
		item("scene-1", 1, "no-take", 4.0, 0), // never accepted a clip
		item("scene-1", 2, "no-audio", 0, 5.0),
	}
	got := Build(items)
	require.Len(t, got.Video, 1)
	assert.Equal(t, "ready", got.Video[0].SentenceID)
	require.Len(t, got.Audio, 1)
	assert.Equal(t, "tts/ready.mp3", got.Audio[0].URI)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	items := []project.SentenceItem{
		item("scene-2", 0, "b", 4.0, 5.0),
		item("scene-1", 0, "a", 4.0, 5.0),
	}
	Build(items)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestDuration(t *testing.T) {
	assert.Zero(t, EDL{}.Duration())

	got := Build([]project.SentenceItem{
		item("scene-1", 0, "a", 4.0, 5.0),
		item("scene-1", 1, "b", 3.0, 6.0),
	})
	// last event starts at 5.0 and its clip runs 6.0 seconds
	assert.Equal(t, 11.0, got.Duration())
}

func TestBuildVideoEventFields(t *testing.T) {
	got := Build([]project.SentenceItem{item("scene-1", 0, "a", 4.0, 5.5)})
	require.Len(t, got.Video, 1)
	ev := got.Video[0]
	assert.Equal(t, "scene-1", ev.SceneKey)
	assert.Equal(t, "clip-a", ev.ClipID)
	assert.Equal(t, "assets/clip-a.mp4", ev.URI)
	assert.Equal(t, 0.0, ev.In)
	assert.Equal(t, 5.5, ev.Out)
}
