package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/velolab/trainsci/config"
	"github.com/velolab/trainsci/metrics"
	"github.com/velolab/trainsci/stream"
)

func newLiveCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Aggregate live sensor readings from MQTT",
		Long:  "Subscribes to the configured sensor topic and prints rolling ride metrics until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			collector := stream.NewCollector(cfg.StreamConfig())
			if err := collector.Start(); err != nil {
				return err
			}
			defer collector.Stop()

			calc := metrics.NewCalculator(cfg.FilterConfig(), cfg.ZoneBounds(), cfg.Athlete.FTPWatts)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			log.Info().Msg("live session started, ctrl-c to stop")
			for {
				select {
				case r := <-collector.Readings():
					calc.Process(r)
				case <-ticker.C:
					fmt.Print(liveLine(calc.Snapshot()))
				case <-sig:
					snap := calc.Snapshot()
					fmt.Println()
					fmt.Print(liveSummary(snap))
					return nil
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Snapshot print interval")
	return cmd
}
