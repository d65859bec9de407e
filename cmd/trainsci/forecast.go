package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/config"
	"github.com/velolab/trainsci/forecast"
	"github.com/velolab/trainsci/history"
)

func newForecastCmd() *cobra.Command {
	var (
		weeks   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project fitness over the coming weeks",
		Long:  "Projects CTL forward from the recent trend, flags plateaus and detraining risk, and assesses readiness for the active event goal.",
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

			var rf forecast.RemoteForecaster
			if rc := remoteClient(cfg); rc != nil {
				rf = rc
			}
			proj, err := forecast.ForecastWith(cmd.Context(), rf, days, weeks, eventGoal(goals), time.Now())
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(proj)
			}
			fmt.Print(projectionReport(proj, weeks))
			return nil
		},
	}

	cmd.Flags().IntVar(&weeks, "weeks", 8, "Number of weeks to project")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the projection as JSON")
	return cmd
}

// eventGoal picks the first active event goal with a target date.
func eventGoal(goals []trainsci.Goal) *trainsci.Goal {
	for i := range goals {
		g := goals[i]
		if g.Active && g.Type == trainsci.GoalEvent && g.TargetDate != nil {
			return &g
		}
	}
	return nil
}
