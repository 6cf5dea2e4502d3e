package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medreel/internal/encoder"
	"medreel/internal/library"
	"medreel/internal/match"
	"medreel/internal/plan"
	"medreel/internal/project"
)

var (
	flagSubject  string
	flagAction   string
	flagKeywords string
	flagDuration float64
	flagK        int
	flagMinSim   float64
	flagSentence string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank library clips against a visual plan",
	Long: `Rank library clips against a visual plan.

The plan comes either from --sentence (a sentence id whose stored plan is
used) or from the --subject/--action/--keywords/--duration flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		vp, err := resolvePlan(cfg.SessionDB())
		if err != nil {
			return err
		}

		lib, err := library.Load(cfg.LibraryDir())
		if err != nil {
			return fmt.Errorf("load library: %w", err)
		}

		enc, err := encoder.LoadText(cfg.ModelDir)
		if err != nil {
			return err
		}

		k := flagK
		if k <= 0 {
			k = cfg.TopK
		}
		takes, err := match.Match(enc, vp, lib, match.Options{
			K:             k,
			MinSimilarity: flagMinSim,
		})
		if err != nil {
			return err
		}

		if len(takes) == 0 {
			fmt.Println("No candidates (library empty or below similarity floor).")
			return nil
		}
		printTakes(takes)
		return nil
	},
}

// resolvePlan builds the query plan from a stored sentence or from flags.
func resolvePlan(sessionDB string) (plan.VisualPlan, error) {
	if flagSentence != "" {
		store, err := project.Open(sessionDB)
		if err != nil {
			return plan.VisualPlan{}, err
		}
		defer store.Close()

		item, err := store.GetSentence(flagSentence)
		if err != nil {
			return plan.VisualPlan{}, err
		}
		if item.VisualPlan == nil {
			return plan.VisualPlan{}, fmt.Errorf("sentence %s has no visual plan; run 'medreel plan' first", flagSentence)
		}
		return *item.VisualPlan, nil
	}

	var keywords []string
	if flagKeywords != "" {
		keywords = strings.Split(flagKeywords, ",")
	}
	return plan.New(plan.VisualPlan{
		PrimarySubject: flagSubject,
		Action:         flagAction,
		Keywords:       keywords,
		DurationS:      flagDuration,
	}), nil
}

func printTakes(takes []match.Take) {
	for i, t := range takes {
		fmt.Printf("%2d. %-40s  sim=%.4f  dur=%.1fs  id=%s\n",
			i+1, t.ClipURI, t.Similarity, t.Duration, t.ClipID)
	}
}

func init() {
	matchCmd.Flags().StringVar(&flagSubject, "subject", "", "primary subject of the shot")
	matchCmd.Flags().StringVar(&flagAction, "action", "", "action or process shown")
	matchCmd.Flags().StringVar(&flagKeywords, "keywords", "", "comma-separated supporting keywords")
	matchCmd.Flags().Float64Var(&flagDuration, "duration", 6.0, "target clip duration in seconds")
	matchCmd.Flags().IntVar(&flagK, "k", 0, "number of candidates to return (default from config)")
	matchCmd.Flags().Float64Var(&flagMinSim, "min-sim", 0, "drop candidates below this similarity")
	matchCmd.Flags().StringVar(&flagSentence, "sentence", "", "sentence id whose stored plan drives the match")
	rootCmd.AddCommand(matchCmd)
}
