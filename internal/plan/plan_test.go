package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCleansFields(t *testing.T) {
	vp := New(VisualPlan{
		ShotType:       "  explainer ",
		PrimarySubject: " heart\t",
		Action:         "pumping blood",
		Keywords:       []string{" cardiology ", "", "  "},
		Avoid:          []string{"", "gore "},
		DurationS:      5.0,
		Sensitivity:    " Medium ",
	})
	assert.Equal(t, "explainer", vp.ShotType)
	assert.Equal(t, "heart", vp.PrimarySubject)
	assert.Equal(t, []string{"cardiology"}, vp.Keywords)
	assert.Equal(t, []string{"gore"}, vp.Avoid)
	assert.Equal(t, "medium", vp.Sensitivity)
}

func TestNewDefaultsSensitivity(t *testing.T) {
	vp := New(VisualPlan{DurationS: 5.0})
	assert.Equal(t, SensitivityMedium, vp.Sensitivity)
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, MinDurationS},
		{3.9, MinDurationS},
		{4.0, 4.0},
		{6.5, 6.5},
		{8.0, 8.0},
		{12.0, MaxDurationS},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDuration(tt.in))
	}
}

func TestNewClampsDuration(t *testing.T) {
	assert.Equal(t, MaxDurationS, New(VisualPlan{DurationS: 30}).DurationS)
	assert.Equal(t, MinDurationS, New(VisualPlan{}).DurationS)
}
