// Package script turns narration text into scenes and sentences and
// estimates speech durations.
package script

import (
	"regexp"
	"strings"
)

// WordsPerSecond is the speech-rate estimate (~150 wpm) used when no
// synthesized audio duration is available.
const WordsPerSecond = 2.5

var (
	sentenceBoundary = regexp.MustCompile(`([.!?]['"]?)\s+([A-Z(\[])`)
	terminalPunct    = regexp.MustCompile(`[.!?]['"]?$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	wordPattern      = regexp.MustCompile(`[\w'-]+`)
	sceneBreak       = regexp.MustCompile(`\n\s*\n`)
)

// Normalize collapses whitespace runs into single spaces and trims.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// SplitScenes splits narration text into scenes on blank lines.
func SplitScenes(text string) []string {
	var scenes []string
	for _, block := range sceneBreak.Split(text, -1) {
		if t := Normalize(block); t != "" {
			scenes = append(scenes, t)
		}
	}
	return scenes
}

// SplitSentences splits a scene's narration into sentences: a boundary is
// terminal punctuation followed by whitespace and a capital or opening
// bracket. Fragments without terminal punctuation are merged into the
// following sentence, which keeps stray remnants out of the result.
func SplitSentences(text string) []string {
	s := Normalize(text)
	if s == "" {
		return nil
	}

	var parts []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringSubmatchIndex(s, -1) {
		// loc[3] is the end of the punctuation group, loc[4] the start of
		// the next sentence's first character.
		parts = append(parts, s[last:loc[3]])
		last = loc[4]
	}
	parts = append(parts, s[last:])

	var out []string
	var buf []string
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		buf = append(buf, t)
		if terminalPunct.MatchString(t) {
			out = append(out, strings.Join(buf, " "))
			buf = nil
		}
	}
	if len(buf) > 0 {
		out = append(out, strings.Join(buf, " "))
	}
	return out
}

// softSplitRule is one way to break an overlong sentence. lowerAfter means
// the split point must be followed by a lowercase letter (a lookahead Go's
// regexp cannot express directly).
type softSplitRule struct {
	pat        *regexp.Regexp
	lowerAfter bool
}

var softSplitRules = []softSplitRule{
	{pat: regexp.MustCompile(`;\s+`)},
	{pat: regexp.MustCompile(`\s+—\s+|\s+-\s+`)},
	{pat: regexp.MustCompile(`,\s+`), lowerAfter: true},
}

// SoftSplit breaks an overlong sentence into at most two chunks, trying
// semicolons first, then dashes, then a comma before a lowercase word.
func SoftSplit(sentence string) []string {
	t := Normalize(sentence)
	if t == "" {
		return nil
	}
	for _, rule := range softSplitRules {
		parts := rule.split(t)
		if len(parts) < 2 {
			continue
		}
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(strings.Join(parts[1:], ", "))
		var out []string
		for _, x := range []string{left, right} {
			if x != "" {
				out = append(out, x)
			}
		}
		return out
	}
	return []string{t}
}

func (r softSplitRule) split(s string) []string {
	if !r.lowerAfter {
		return r.pat.Split(s, -1)
	}
	var parts []string
	last := 0
	for _, loc := range r.pat.FindAllStringIndex(s, -1) {
		if loc[1] >= len(s) || s[loc[1]] < 'a' || s[loc[1]] > 'z' {
			continue
		}
		parts = append(parts, s[last:loc[0]])
		last = loc[1]
	}
	parts = append(parts, s[last:])
	return parts
}

// CountWords counts narration words, treating hyphens and apostrophes as
// word-internal.
func CountWords(text string) int {
	return len(wordPattern.FindAllString(text, -1))
}

// EstimateDuration estimates the spoken duration of text in seconds from
// the word count.
func EstimateDuration(text string) float64 {
	return float64(CountWords(text)) / WordsPerSecond
}

// EnforceWordBudget trims text to at most maxWords words, restoring terminal
// punctuation. It reports whether a trim happened. A non-positive budget
// disables trimming.
func EnforceWordBudget(text string, maxWords int) (string, bool) {
	t := strings.TrimSpace(text)
	if maxWords <= 0 {
		return t, false
	}
	words := wordPattern.FindAllString(t, -1)
	if len(words) <= maxWords {
		return t, false
	}
	out := strings.TrimRight(strings.Join(words[:maxWords], " "), ".")
	if !terminalPunct.MatchString(out) {
		out += "."
	}
	return out, true
}
