package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Planner calls the Ollama /api/generate endpoint to turn a narration
// sentence into a VisualPlan.
type Planner struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewPlanner creates a planner targeting the given Ollama instance and model.
func NewPlanner(baseURL, model string) *Planner {
	return &Planner{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

const planPrompt = `Return ONLY JSON with fields: shot_type, primary_subject, action, visual_level, color_style, avoid (array), duration_s (float 4-8), keywords (array), sensitivity.
Keep values short and unambiguous. duration_s between 4 and 8.
Sentence: %s
Target sensitivity: %s
`

// PlanSentence asks the model for a visual plan for one narration sentence.
// Any failure (network, bad status, unparseable JSON) falls back to a fixed
// default plan rather than surfacing an error: narration must always get a
// usable plan, and the matcher's own fallback query covers sparse ones.
func (p *Planner) PlanSentence(sentence, sensitivity string) VisualPlan {
	if sensitivity == "" {
		sensitivity = SensitivityMedium
	}

	vp, err := p.requestPlan(sentence, sensitivity)
	if err != nil {
		vp = fallbackPlan(sensitivity)
	}
	return New(vp)
}

func (p *Planner) requestPlan(sentence, sensitivity string) (VisualPlan, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: fmt.Sprintf(planPrompt, sentence, sensitivity),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return VisualPlan{}, fmt.Errorf("marshal generate request: %w", err)
	}

	resp, err := p.client.Post(p.baseURL+"/api/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return VisualPlan{}, fmt.Errorf("ollama generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return VisualPlan{}, fmt.Errorf("ollama generate returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VisualPlan{}, fmt.Errorf("decode generate response: %w", err)
	}

	var vp VisualPlan
	if err := json.Unmarshal([]byte(result.Response), &vp); err != nil {
		return VisualPlan{}, fmt.Errorf("parse visual plan: %w", err)
	}
	if vp.PrimarySubject == "" && vp.Action == "" && len(vp.Keywords) == 0 {
		return VisualPlan{}, fmt.Errorf("model returned an empty plan")
	}
	return vp, nil
}

// fallbackPlan is the deterministic plan used when the model is unreachable
// or returns garbage.
func fallbackPlan(sensitivity string) VisualPlan {
	shot := "explainer"
	if sensitivity == SensitivityLow {
		shot = "diagram"
	}
	return VisualPlan{
		ShotType:       shot,
		PrimarySubject: "medical subject",
		Action:         "explain mechanism",
		VisualLevel:    "schematic",
		ColorStyle:     "clinical",
		Avoid:          []string{"clutter"},
		DurationS:      6.0,
		Keywords:       []string{"mechanism"},
		Sensitivity:    sensitivity,
	}
}
