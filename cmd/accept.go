package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medreel/internal/encoder"
	"medreel/internal/library"
	"medreel/internal/match"
	"medreel/internal/project"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <sentence-id> <clip-id>",
	Short: "Accept a clip as the take for a sentence",
	Long: `Accept a clip as the take for a sentence.

The sentence's stored plan is re-ranked against the library and the chosen
clip's take, with its similarity at acceptance time, is frozen onto the
sentence.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sentenceID, clipID := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := project.Open(cfg.SessionDB())
		if err != nil {
			return err
		}
		defer store.Close()

		item, err := store.GetSentence(sentenceID)
		if err != nil {
			return err
		}
		if item.VisualPlan == nil {
			return fmt.Errorf("sentence %s has no visual plan; run 'medreel plan' first", sentenceID)
		}

		lib, err := library.Load(cfg.LibraryDir())
		if err != nil {
			return fmt.Errorf("load library: %w", err)
		}
		enc, err := encoder.LoadText(cfg.ModelDir)
		if err != nil {
			return err
		}

		// Rank the whole library so the chosen clip is in the result
		// regardless of its position.
		takes, err := match.Match(enc, *item.VisualPlan, lib, match.Options{
			K:             lib.Len(),
			RequireResult: true,
		})
		if err != nil {
			return err
		}

		for _, t := range takes {
			if t.ClipID == clipID {
				if err := store.AcceptTake(sentenceID, t); err != nil {
					return err
				}
				fmt.Printf("Accepted %s for sentence %s (sim=%.4f)\n", t.ClipURI, sentenceID, t.Similarity)
				return nil
			}
		}
		return fmt.Errorf("clip %s not found in library", clipID)
	},
}

func init() {
	rootCmd.AddCommand(acceptCmd)
}
