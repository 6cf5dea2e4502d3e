// Package tts synthesizes narration audio through the ElevenLabs API, with
// a text-stub fallback when no API key is configured.
package tts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"medreel/internal/script"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "eleven_multilingual_v2"
)

// Result is one synthesized (or estimated) narration segment.
type Result struct {
	Path      string  `json:"path"`
	DurationS float64 `json:"duration_s"`
}

// Client synthesizes speech for narration sentences. Audio files are cached
// by voice and text hash, so re-synthesizing identical text is free.
type Client struct {
	baseURL string
	apiKey  string
	dir     string
	client  *http.Client
}

// NewClient creates a TTS client writing audio files into dir. An empty
// apiKey switches the client into estimate-only mode.
func NewClient(dir, apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		dir:     dir,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize produces narration audio for text with the given voice and
// returns its path and duration. Without an API key it writes the text to a
// stub file and returns a words-per-second duration estimate; audio
// synthesis itself is an external concern, the pipeline only needs a
// duration to build timelines against.
func (c *Client) Synthesize(voiceID, text string) (Result, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create tts dir: %w", err)
	}

	duration := EstimateDuration(text)

	if c.apiKey == "" {
		path := filepath.Join(c.dir, fmt.Sprintf("tts_%s_%s.txt", voiceID, hashText(text)))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return Result{}, fmt.Errorf("write tts stub: %w", err)
		}
		return Result{Path: path, DurationS: duration}, nil
	}

	path := filepath.Join(c.dir, fmt.Sprintf("tts_%s_%s.mp3", voiceID, hashText(text)))
	if _, err := os.Stat(path); err == nil {
		return Result{Path: path, DurationS: duration}, nil
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, ModelID: defaultModelID})
	if err != nil {
		return Result{}, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("tts returned %d: %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read tts audio: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return Result{}, fmt.Errorf("write tts audio: %w", err)
	}
	return Result{Path: path, DurationS: duration}, nil
}

// EstimateDuration estimates spoken duration from the word count, rounded
// to centiseconds.
func EstimateDuration(text string) float64 {
	return math.Round(script.EstimateDuration(text)*100) / 100
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:10]
}
