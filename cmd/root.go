package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"medreel/internal/config"
)

var (
	flagConfig   string
	flagData     string
	flagModelDir string
	flagOllama   string
)

var rootCmd = &cobra.Command{
	Use:   "medreel",
	Short: "Assemble medical explainer videos from narration scripts",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "medreel.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModelDir, "model-dir", "", "clip encoder model directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL (overrides config)")
}

// loadConfig resolves the effective configuration from the config file and
// command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagData != "" {
		cfg.DataDir = flagData
	}
	if flagModelDir != "" {
		cfg.ModelDir = flagModelDir
	}
	if flagOllama != "" {
		cfg.OllamaURL = flagOllama
	}
	return cfg, nil
}
