package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medreel/internal/edl"
	"medreel/internal/project"
)

var flagOut string

var edlCmd = &cobra.Command{
	Use:   "edl <session-id>",
	Short: "Build the edit decision list from accepted takes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := project.Open(cfg.SessionDB())
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.ListSentences(args[0])
		if err != nil {
			return err
		}

		timeline := edl.Build(items)
		if len(timeline.Video) == 0 {
			return fmt.Errorf("no sentences with an accepted take and narration duration; run 'medreel accept' and 'medreel tts' first")
		}

		data, err := json.MarshalIndent(timeline, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagOut, data, 0o644); err != nil {
			return fmt.Errorf("write edl: %w", err)
		}

		fmt.Printf("Wrote %s\n", flagOut)
		fmt.Printf("  Events:   %d video, %d audio\n", len(timeline.Video), len(timeline.Audio))
		fmt.Printf("  Duration: %.1fs\n", timeline.Duration())
		return nil
	},
}

func init() {
	edlCmd.Flags().StringVarP(&flagOut, "out", "o", "edl.json", "output path")
	rootCmd.AddCommand(edlCmd)
}
