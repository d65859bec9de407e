package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/velolab/trainsci/config"
	"github.com/velolab/trainsci/cp"
	"github.com/velolab/trainsci/ftp"
	"github.com/velolab/trainsci/history"
	"github.com/velolab/trainsci/ingest"
	"github.com/velolab/trainsci/metrics"
	"github.com/velolab/trainsci/pdc"
	"github.com/velolab/trainsci/rider"
)

// rideAnalysis is the full analyze output, also emitted as JSON.
type rideAnalysis struct {
	File      string           `json:"file"`
	Sport     string           `json:"sport,omitempty"`
	Start     time.Time        `json:"start,omitempty"`
	Snapshot  metrics.Snapshot `json:"metrics"`
	Curve     []pdc.Point      `json:"power_duration_curve"`
	Model     *cp.Model        `json:"critical_power,omitempty"`
	Estimate  *ftp.Estimate    `json:"ftp_estimate,omitempty"`
	NewFTP    bool             `json:"ftp_change_significant"`
	Profile   *rider.Profile   `json:"rider_profile,omitempty"`
	RiderType rider.Type       `json:"rider_type,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		ftpOverride float64
		jsonOut     bool
		saveHistory bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <path-to-fit-file>",
		Short: "Analyze a ride FIT file",
		Long:  "Decodes a FIT file, computes ride metrics, derives the power-duration curve, fits the critical power model and checks for an FTP change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if ftpOverride > 0 {
				cfg.Athlete.FTPWatts = ftpOverride
			}

			out, err := analyzeRide(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			if saveHistory && out.Snapshot.TSS > 0 {
				if err := appendHistory(cfg, out); err != nil {
					return err
				}
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Print(analysisReport(out))
			return nil
		},
	}

	cmd.Flags().Float64Var(&ftpOverride, "ftp", 0, "FTP in watts, overriding the configured value")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit full analysis as JSON")
	cmd.Flags().BoolVar(&saveHistory, "save", false, "Append the ride's training stress to the load history")
	return cmd
}

func analyzeRide(ctx context.Context, cfg config.Config, path string) (*rideAnalysis, error) {
	ride, err := ingest.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	calc := metrics.NewCalculator(cfg.FilterConfig(), cfg.ZoneBounds(), cfg.Athlete.FTPWatts)
	for _, r := range ride.Readings {
		calc.Process(r)
	}

	curve := ride.Curve(pdc.StandardDurations)
	out := &rideAnalysis{
		File:     path,
		Sport:    ride.Sport,
		Start:    ride.Start,
		Snapshot: calc.Snapshot(),
		Curve:    curve.Points(),
	}

	opts := cp.Options{
		MinDurationSecs: cfg.CP.MinDurationSecs,
		MaxDurationSecs: cfg.CP.MaxDurationSecs,
	}
	out.Model = fitModel(curve, opts)

	var rp ftp.RemotePredictor
	if rc := remoteClient(cfg); rc != nil {
		rp = rc
	}
	est, err := detectFTP(ctx, rp, curve, out.Model)
	if err != nil {
		log.Debug().Err(err).Msg("no FTP estimate from this ride")
	} else {
		out.Estimate = &est
		threshold := cfg.Athlete.FTPChangeThresholdPct / 100
		out.NewFTP = ftp.IsSignificantChange(uint16(cfg.Athlete.FTPWatts), est, threshold)
	}

	profileFTP := uint16(cfg.Athlete.FTPWatts)
	if profileFTP == 0 && out.Estimate != nil {
		profileFTP = out.Estimate.Watts
	}
	if profileFTP > 0 {
		profile := rider.BuildProfile(curve, profileFTP)
		out.Profile = &profile
		out.RiderType = rider.Classify(profile)
	}
	return out, nil
}

// fitModel returns nil whenever the ride cannot support a critical power
// fit; short rides are a normal analyze input, not an error.
func fitModel(curve pdc.Curve, opts cp.Options) *cp.Model {
	model, err := cp.Fit(curve, opts)
	if err != nil {
		log.Debug().Err(err).Msg("critical power model unavailable for this ride")
		return nil
	}
	return &model
}

// detectFTP runs the estimation chain and, when no method applies, seeds an
// estimate from the fitted critical power model.
func detectFTP(ctx context.Context, rp ftp.RemotePredictor, curve pdc.Curve, model *cp.Model) (ftp.Estimate, error) {
	est, err := ftp.DetectWith(ctx, rp, curve)
	if err == nil {
		return est, nil
	}
	if model != nil {
		return ftp.FromModel(*model), nil
	}
	return ftp.Estimate{}, err
}

func appendHistory(cfg config.Config, out *rideAnalysis) error {
	days, err := history.Load(cfg.History.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load history: %w", err)
	}
	date := out.Start
	if date.IsZero() {
		date = time.Now()
	}
	days = history.Accumulate(days, date, out.Snapshot.TSS)
	if err := history.Save(cfg.History.Path, days); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	log.Info().Str("path", cfg.History.Path).Float64("tss", out.Snapshot.TSS).Msg("training load recorded")
	return nil
}
