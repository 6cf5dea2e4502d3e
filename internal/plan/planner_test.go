package plan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlanner(url string) *Planner {
	return &Planner{
		baseURL: url,
		model:   "llama3",
		client:  &http.Client{Timeout: time.Second},
	}
}

func ollamaResponse(t *testing.T, vp VisualPlan) []byte {
	t.Helper()
	inner, err := json.Marshal(vp)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]string{"response": string(inner)})
	require.NoError(t, err)
	return outer
}

func TestPlanSentenceUsesModelPlan(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(ollamaResponse(t, VisualPlan{
			ShotType:       "explainer",
			PrimarySubject: "pancreas",
			Action:         "releasing insulin",
			DurationS:      5.5,
			Keywords:       []string{"endocrine"},
		}))
	}))
	defer srv.Close()

	vp := testPlanner(srv.URL).PlanSentence("Insulin lowers blood sugar.", "low")
	assert.Equal(t, "pancreas", vp.PrimarySubject)
	assert.Equal(t, "releasing insulin", vp.Action)
	assert.Equal(t, 5.5, vp.DurationS)
	assert.Equal(t, "low", vp.Sensitivity)

	assert.Equal(t, "llama3", gotReq.Model)
	assert.Equal(t, "json", gotReq.Format)
	assert.False(t, gotReq.Stream)
	assert.Contains(t, gotReq.Prompt, "Insulin lowers blood sugar.")
}

func TestPlanSentenceClampsModelDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ollamaResponse(t, VisualPlan{
			PrimarySubject: "lungs",
			Action:         "expanding",
			DurationS:      45.0,
		}))
	}))
	defer srv.Close()

	vp := testPlanner(srv.URL).PlanSentence("The lungs expand.", "")
	assert.Equal(t, MaxDurationS, vp.DurationS)
	assert.Equal(t, SensitivityMedium, vp.Sensitivity)
}

func TestPlanSentenceFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	vp := testPlanner(srv.URL).PlanSentence("sentence", "low")
	assert.Equal(t, "diagram", vp.ShotType)
	assert.Equal(t, "medical subject", vp.PrimarySubject)
	assert.Equal(t, 6.0, vp.DurationS)
}

func TestPlanSentenceFallsBackOnGarbageJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "this is not json"}`))
	}))
	defer srv.Close()

	vp := testPlanner(srv.URL).PlanSentence("sentence", "high")
	assert.Equal(t, "explainer", vp.ShotType)
	assert.Equal(t, "high", vp.Sensitivity)
}

func TestPlanSentenceFallsBackOnEmptyPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ollamaResponse(t, VisualPlan{DurationS: 5}))
	}))
	defer srv.Close()

	vp := testPlanner(srv.URL).PlanSentence("sentence", "")
	assert.Equal(t, "medical subject", vp.PrimarySubject)
}

func TestPlanSentenceFallsBackWhenUnreachable(t *testing.T) {
	vp := testPlanner("http://127.0.0.1:1").PlanSentence("sentence", "")
	assert.Equal(t, "explainer", vp.ShotType)
	assert.Equal(t, "explain mechanism", vp.Action)
}
