package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/velolab/trainsci/config"
	"github.com/velolab/trainsci/remote"
)

const version = "v0.3.0"

var (
	configPath string
	verbose    bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "trainsci",
		Short:   "Training science analytics for cycling power data",
		Version: version,
		Long: `trainsci analyzes cycling power data: per-ride metrics, power-duration
curves, critical power modeling, FTP detection, rider profiling, training
load adaptation and performance forecasting.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "trainsci.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newForecastCmd())
	rootCmd.AddCommand(newLiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// remoteClient builds the prediction client when one is configured. Callers
// hand the nil interface to the *With helpers, which then run locally.
func remoteClient(cfg config.Config) *remote.Client {
	if cfg.Remote.URL == "" {
		return nil
	}
	return remote.NewClient(cfg.Remote.URL, cfg.Remote.Timeout())
}
