package project

import (
	"medreel/internal/match"
	"medreel/internal/plan"
)

// SentenceItem is one narration sentence and its derived artifacts within a
// session. Optional fields are nil until the corresponding pipeline step has
// run.
type SentenceItem struct {
	ID        string  `json:"id"`
	SceneKey  string  `json:"scene_key"`
	Position  int     `json:"position"`
	Text      string  `json:"text"`
	TTSPath   string  `json:"tts_path,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`

	// VisualPlan is the current plan for this sentence; replanning
	// replaces it.
	VisualPlan *plan.VisualPlan `json:"visual_plan,omitempty"`

	// AcceptedTake is a frozen snapshot made at acceptance time. Later
	// index changes never alter it.
	AcceptedTake *match.Take `json:"accepted_take,omitempty"`
}

// Session is a narration project: an ordered set of scenes, each holding
// ordered sentences.
type Session struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}
