// Package edl assembles an edit decision list from accepted takes and
// narration audio.
package edl

import (
	"sort"
	"strconv"
	"strings"

	"medreel/internal/project"
)

// VideoEvent places one accepted clip on the video track.
type VideoEvent struct {
	SceneKey   string  `json:"scene_key"`
	SentenceID string  `json:"sentence_id"`
	ClipID     string  `json:"clip_id"`
	URI        string  `json:"uri"`
	In         float64 `json:"in"`
	Out        float64 `json:"out"`
	Start      float64 `json:"start"`
}

// AudioEvent places one narration segment on the audio track.
type AudioEvent struct {
	SentenceID string  `json:"sentence_id"`
	URI        string  `json:"uri"`
	Start      float64 `json:"start"`
}

// EDL is the ordered timeline handed to the renderer.
type EDL struct {
	Video []VideoEvent `json:"video"`
	Audio []AudioEvent `json:"audio"`
}

// Duration returns the total timeline length in seconds.
func (e EDL) Duration() float64 {
	if len(e.Video) == 0 {
		return 0
	}
	last := e.Video[len(e.Video)-1]
	return last.Start + last.Out
}

// Build assembles the timeline from a session's sentences. Scenes play in
// numeric key order, sentences in position order; sentences without an
// accepted take or a narration duration are skipped. Each slot lasts the
// longer of its clip and its narration.
func Build(items []project.SentenceItem) EDL {
	ordered := make([]project.SentenceItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(a, b int) bool {
		ka, kb := sceneOrdinal(ordered[a].SceneKey), sceneOrdinal(ordered[b].SceneKey)
		if ka != kb {
			return ka < kb
		}
		return ordered[a].Position < ordered[b].Position
	})

	var out EDL
	cursor := 0.0
	for _, item := range ordered {
		if item.AcceptedTake == nil || item.DurationS == 0 {
			continue
		}
		take := item.AcceptedTake
		out.Video = append(out.Video, VideoEvent{
			SceneKey:   item.SceneKey,
			SentenceID: item.ID,
			ClipID:     take.ClipID,
			URI:        take.ClipURI,
			In:         0,
			Out:        take.Duration,
			Start:      cursor,
		})
		out.Audio = append(out.Audio, AudioEvent{
			SentenceID: item.ID,
			URI:        item.TTSPath,
			Start:      cursor,
		})
		slot := take.Duration
		if item.DurationS > slot {
			slot = item.DurationS
		}
		cursor += slot
	}
	return out
}

// sceneOrdinal extracts the trailing number of a scene key like "scene-2".
// Keys without one sort before numbered keys.
func sceneOrdinal(key string) int {
	i := strings.LastIndex(key, "-")
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return -1
	}
	return n
}
