package plan

import "strings"

// Scene duration bounds in seconds. Plans are clamped into this range
// before any downstream use.
const (
	MinDurationS = 4.0
	MaxDurationS = 8.0
)

// Sensitivity labels for a visual plan.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// VisualPlan is the structured visual intent for one narration sentence.
// It is immutable once handed to the matcher; replanning produces a new value.
type VisualPlan struct {
	ShotType       string   `json:"shot_type" yaml:"shot_type"`
	PrimarySubject string   `json:"primary_subject" yaml:"primary_subject"`
	Action         string   `json:"action" yaml:"action"`
	VisualLevel    string   `json:"visual_level" yaml:"visual_level"`
	ColorStyle     string   `json:"color_style" yaml:"color_style"`
	Avoid          []string `json:"avoid" yaml:"avoid"`
	DurationS      float64  `json:"duration_s" yaml:"duration_s"`
	Keywords       []string `json:"keywords" yaml:"keywords"`
	Sensitivity    string   `json:"sensitivity" yaml:"sensitivity"`
}

// New builds a validated VisualPlan: fields are trimmed, empty keyword and
// avoid entries dropped, sensitivity defaulted to medium, and the duration
// clamped into [MinDurationS, MaxDurationS].
func New(vp VisualPlan) VisualPlan {
	vp.ShotType = strings.TrimSpace(vp.ShotType)
	vp.PrimarySubject = strings.TrimSpace(vp.PrimarySubject)
	vp.Action = strings.TrimSpace(vp.Action)
	vp.VisualLevel = strings.TrimSpace(vp.VisualLevel)
	vp.ColorStyle = strings.TrimSpace(vp.ColorStyle)
	vp.Avoid = cleanList(vp.Avoid)
	vp.Keywords = cleanList(vp.Keywords)
	vp.Sensitivity = strings.ToLower(strings.TrimSpace(vp.Sensitivity))
	if vp.Sensitivity == "" {
		vp.Sensitivity = SensitivityMedium
	}
	vp.DurationS = ClampDuration(vp.DurationS)
	return vp
}

// ClampDuration forces a requested duration into the scene bounds.
func ClampDuration(d float64) float64 {
	if d < MinDurationS {
		return MinDurationS
	}
	if d > MaxDurationS {
		return MaxDurationS
	}
	return d
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
