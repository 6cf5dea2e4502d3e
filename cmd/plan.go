package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medreel/internal/plan"
	"medreel/internal/project"
)

var (
	flagSensitivity string
	flagModel       string
	flagReplan      bool
)

var planCmd = &cobra.Command{
	Use:   "plan <session-id>",
	Short: "Generate a visual plan for each sentence in a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		model := flagModel
		if model == "" {
			model = cfg.PlannerModel
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
		if len(items) == 0 {
			return fmt.Errorf("session %s has no sentences", args[0])
		}

		planner := plan.NewPlanner(cfg.OllamaURL, model)
		planned := 0
		for _, item := range items {
			if item.VisualPlan != nil && !flagReplan {
				continue
			}
			vp := planner.PlanSentence(item.Text, flagSensitivity)
			if err := store.SavePlan(item.ID, vp); err != nil {
				return err
			}
			planned++
			fmt.Printf("  %s  %s / %s (%.1fs)\n", item.ID, vp.PrimarySubject, vp.Action, vp.DurationS)
		}

		fmt.Printf("Planned %d of %d sentences\n", planned, len(items))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&flagSensitivity, "sensitivity", plan.SensitivityMedium, "target sensitivity (low, medium, high)")
	planCmd.Flags().StringVar(&flagModel, "model", "", "planner model (default from config)")
	planCmd.Flags().BoolVar(&flagReplan, "replan", false, "replace existing plans")
	rootCmd.AddCommand(planCmd)
}
