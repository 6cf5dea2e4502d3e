// Package config loads medreel settings from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable settings. Zero values fall back to defaults at
// load time.
type Config struct {
	// DataDir is the root for the library index, assets, keyframes, TTS
	// audio, and the session database.
	DataDir string `yaml:"data_dir"`
	// ModelDir holds the clip encoder artifacts (tokenizer + ONNX towers).
	ModelDir string `yaml:"model_dir"`
	// OllamaURL is the base URL of the local LLM server used for planning.
	OllamaURL string `yaml:"ollama_url"`
	// PlannerModel is the Ollama model used to plan visuals per sentence.
	PlannerModel string `yaml:"planner_model"`
	// VoiceID is the TTS voice.
	VoiceID string `yaml:"voice_id"`
	// TopK is the default number of candidate takes per match.
	TopK int `yaml:"top_k"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:      "data",
		ModelDir:     filepath.Join("data", "model"),
		OllamaURL:    "http://localhost:11434",
		PlannerModel: "llama3",
		VoiceID:      "default",
		TopK:         3,
	}
}

// Load reads the config at path, fills unset fields with defaults, and
// applies environment overrides. A missing file yields the defaults; a
// malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = filepath.Join(cfg.DataDir, "model")
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = def.OllamaURL
	}
	if cfg.PlannerModel == "" {
		cfg.PlannerModel = def.PlannerModel
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = def.VoiceID
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MEDREEL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MEDREEL_MODEL_DIR"); v != "" {
		cfg.ModelDir = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.PlannerModel = v
	}
}

// ElevenLabsKey returns the TTS API key, empty when synthesis should fall
// back to duration estimates.
func ElevenLabsKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// LibraryDir is where the three index artifacts live.
func (c Config) LibraryDir() string { return filepath.Join(c.DataDir, "library") }

// AssetsDir is where ingested clips are copied.
func (c Config) AssetsDir() string { return filepath.Join(c.DataDir, "assets") }

// KeyframesDir is where extracted keyframes are cached.
func (c Config) KeyframesDir() string { return filepath.Join(c.DataDir, "keyframes") }

// TTSDir is where narration audio is written.
func (c Config) TTSDir() string { return filepath.Join(c.DataDir, "tts") }

// SessionDB is the session database path.
func (c Config) SessionDB() string { return filepath.Join(c.DataDir, "sessions.db") }
