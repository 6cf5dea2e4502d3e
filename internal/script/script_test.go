package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "one two three", Normalize("  one\t two\nthree  "))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestSplitScenes(t *testing.T) {
	text := "The heart pumps blood.\nIt never rests.\n\nValves keep flow one-way.\n\n\n  \n"
	scenes := SplitScenes(text)
	assert.Equal(t, []string{
		"The heart pumps blood. It never rests.",
		"Valves keep flow one-way.",
	}, scenes)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic",
			in:   "The heart pumps blood. It beats about once a second.",
			want: []string{"The heart pumps blood.", "It beats about once a second."},
		},
		{
			name: "question and exclamation",
			in:   "What does insulin do? It lowers blood sugar!",
			want: []string{"What does insulin do?", "It lowers blood sugar!"},
		},
		{
			name: "abbreviation before lowercase is not a boundary",
			in:   "Blood pressure of approx. 120 over 80 is typical.",
			want: []string{"Blood pressure of approx. 120 over 80 is typical."},
		},
		{
			name: "quote after punctuation",
			in:   `Patients often ask "why me?" The answer is rarely simple.`,
			want: []string{`Patients often ask "why me?"`, "The answer is rarely simple."},
		},
		{
			name: "trailing fragment without punctuation kept",
			in:   "The kidneys filter blood. about 180 liters a day",
			want: []string{"The kidneys filter blood. about 180 liters a day"},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestSoftSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "semicolon wins",
			in:   "The liver detoxifies blood; it also stores glycogen.",
			want: []string{"The liver detoxifies blood", "it also stores glycogen."},
		},
		{
			name: "dash",
			in:   "Neurons fire fast — faster than any muscle responds.",
			want: []string{"Neurons fire fast", "faster than any muscle responds."},
		},
		{
			name: "comma before lowercase",
			in:   "Red cells carry oxygen, while white cells fight infection.",
			want: []string{"Red cells carry oxygen", "while white cells fight infection."},
		},
		{
			name: "comma before capital is not a split point",
			in:   "In Boston, Mass General treats thousands yearly.",
			want: []string{"In Boston, Mass General treats thousands yearly."},
		},
		{
			name: "no split point",
			in:   "Enzymes accelerate reactions.",
			want: []string{"Enzymes accelerate reactions."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SoftSplit(tt.in))
		})
	}
}

func TestSoftSplitAtMostTwoChunks(t *testing.T) {
	got := SoftSplit("First the atria contract, then the ventricles follow, then the valves close.")
	assert.Len(t, got, 2)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 4, CountWords("The heart pumps blood."))
	assert.Equal(t, 4, CountWords("It's a one-way valve"))
}

func TestEstimateDuration(t *testing.T) {
	// 10 words at 2.5 words/sec is 4 seconds.
	assert.InDelta(t, 4.0, EstimateDuration("one two three four five six seven eight nine ten"), 1e-9)
	assert.Zero(t, EstimateDuration(""))
}

func TestEnforceWordBudget(t *testing.T) {
	text := "The heart pumps blood through the body every single day."

	got, trimmed := EnforceWordBudget(text, 4)
	assert.True(t, trimmed)
	assert.Equal(t, "The heart pumps blood.", got)

	got, trimmed = EnforceWordBudget(text, 100)
	assert.False(t, trimmed)
	assert.Equal(t, text, got)

	got, trimmed = EnforceWordBudget(text, 0)
	assert.False(t, trimmed)
	assert.Equal(t, text, got)
}
