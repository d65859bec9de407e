package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/velolab/trainsci/config"
	"github.com/velolab/trainsci/history"
	"github.com/velolab/trainsci/plan"
)

func newRecommendCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend next week's training load",
		Long:  "Computes the acute:chronic workload ratio from the load history and recommends a weekly TSS target, intensity distribution and week structure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			days, err := history.Load(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			goals, err := cfg.TrainingGoals()
			if err != nil {
				return err
			}

			var ra plan.RemoteAdvisor
			if rc := remoteClient(cfg); rc != nil {
				ra = rc
			}
			rec, err := plan.RecommendWith(cmd.Context(), ra, days, planModel(cfg), goals, time.Now())
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Print(recommendationReport(rec))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the recommendation as JSON")
	return cmd
}

func planModel(cfg config.Config) plan.Model {
	model := plan.DefaultModel()
	if cfg.Plan.OptimalWeeklyTSS > 0 {
		model.OptimalWeeklyTSS = cfg.Plan.OptimalWeeklyTSS
	}
	switch cfg.Plan.Distribution {
	case "polarized":
		model.Preferred = plan.Polarized
	case "pyramidal":
		model.Preferred = plan.Pyramidal
	case "threshold_focus":
		model.Preferred = plan.ThresholdFocus
	}
	return model
}
