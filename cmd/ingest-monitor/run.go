// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/internal/ingest"
	"github.com/pdiddy/ingest-monitor/internal/metrics"
	"github.com/pdiddy/ingest-monitor/internal/monitor"
	"github.com/pdiddy/ingest-monitor/internal/source"
	"github.com/pdiddy/ingest-monitor/internal/stats"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the collection monitor until interrupted",
	Long: `Run performs one collection cycle immediately and then keeps running,
firing cycles, heartbeats and store health checks on their configured
intervals. SIGINT or SIGTERM stops it once the step in progress completes;
a final stats snapshot is written on the way out.

With --once a single cycle runs and the command exits, non-zero unless the
cycle succeeded.`,
	RunE: runMonitor,
}

func init() {
	runCmd.Flags().Bool("once", false, "run a single cycle and exit")
	runCmd.Flags().Int64("seed", 0, "record generator seed (default: time-based)")

	rootCmd.AddCommand(runCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	once, _ := cmd.Flags().GetBool("once")
	seed, _ := cmd.Flags().GetInt64("seed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}
	mt := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := mt.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.WithError(err).Error("metrics listener stopped")
			}
		}()
	}

	mgr, err := store.NewManager(cfg.Store, logger, store.WithMetrics(mt))
	if err != nil {
		return err
	}

	adapters, err := source.Build(cfg.Sources, cfg.HTTP, synth.New(seed, clk), logger)
	if err != nil {
		return fmt.Errorf("building sources: %w", err)
	}

	rec := stats.NewRecorder(cfg.Monitor.StatsPath, clk, logger, stats.WithMetrics(mt))
	if err := rec.Load(); err != nil {
		logger.WithError(err).Warn("previous stats snapshot ignored")
	}
	for _, s := range cfg.Sources {
		rec.RegisterSource(s.Name, s.Enabled)
	}

	mon := monitor.New(cfg.Monitor, monitor.Deps{
		Clock:   clk,
		Store:   mgr,
		Sources: source.NewHarness(adapters, cfg.Monitor.SourceTimeout, clk, mt, logger),
		Writer:  ingest.NewWriter(cfg.Store.BatchSize, logger, ingest.WithMetrics(mt)),
		Stats:   rec,
		Logger:  logger,
	})

	if once {
		sum := mon.RunCycle()
		if sum.Outcome != types.OutcomeSucceeded {
			return fmt.Errorf("cycle %d %s", sum.Number, sum.Outcome)
		}
		return nil
	}

	sh := monitor.NewShutdown()
	stop := monitor.WatchSignals(sh, logger)
	defer stop()
	return mon.RunForever(sh)
}
