package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medreel/internal/plan"
	"medreel/internal/project"
	"medreel/internal/script"
)

var flagTitle string

var scriptCmd = &cobra.Command{
	Use:   "script <narration.txt>",
	Short: "Split a narration script into scenes and sentences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
		store, err := project.Open(cfg.SessionDB())
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.CreateSession(flagTitle)
		if err != nil {
			return err
		}

		scenes := script.SplitScenes(string(text))
		total := 0
		for i, scene := range scenes {
			var sentences []string
			for _, s := range script.SplitSentences(scene) {
				// Sentences that would outlast the longest scene slot get
				// soft-split into two narration units.
				if script.EstimateDuration(s) > plan.MaxDurationS {
					sentences = append(sentences, script.SoftSplit(s)...)
				} else {
					sentences = append(sentences, s)
				}
			}
			key := fmt.Sprintf("scene-%d", i)
			if _, err := store.AddSentences(sess.ID, key, sentences); err != nil {
				return err
			}
			total += len(sentences)
		}

		fmt.Printf("Session %s\n", sess.ID)
		fmt.Printf("  Scenes:    %d\n", len(scenes))
		fmt.Printf("  Sentences: %d\n", total)
		return nil
	},
}

func init() {
	scriptCmd.Flags().StringVar(&flagTitle, "title", "", "session title")
	rootCmd.AddCommand(scriptCmd)
}
