// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/internal/importer"
	"github.com/pdiddy/ingest-monitor/internal/ingest"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/internal/synth"
)

const defaultImportBatchSize = 500

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load published guide libraries into the store",
	Long: `Import walks a catalog of published guide libraries and writes guides
for each library's genes through the same deduplicating batch writer the
monitor uses. Records already present are counted as duplicates, so the
import can be re-run safely.

Without --catalog the built-in catalog (Brunello, GeCKO v2, TKOv3, Brie,
Sabatini) is used. SIGINT stops the import between batches.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("catalog", "", "YAML library catalog (default: built-in)")
	importCmd.Flags().Int("limit-genes", 0, "import at most this many genes per library (0: all)")
	importCmd.Flags().Int("batch-size", defaultImportBatchSize, "records per transaction")
	importCmd.Flags().Int64("seed", 0, "record generator seed (default: time-based)")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	catalogPath, _ := cmd.Flags().GetString("catalog")
	limit, _ := cmd.Flags().GetInt("limit-genes")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	seed, _ := cmd.Flags().GetInt64("seed")

	cat := importer.DefaultCatalog()
	if catalogPath != "" {
		var err error
		if cat, err = importer.LoadCatalog(catalogPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := store.NewManager(cfg.Store, logger)
	if err != nil {
		return err
	}
	conn, err := mgr.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if status := store.HealthCheck(ctx, conn, time.Now(), cfg.Store.RecentWindow); status.SchemaMissing() {
		return fmt.Errorf("%w: run `ingest-monitor store init` first", status.Err)
	}

	rep := importer.Run(ctx, conn, ingest.NewWriter(batchSize, logger), cat,
		synth.New(seed, clock.RealClock{}), os.Stdout, importer.Options{LimitGenes: limit})
	if rep.FailedBatches > 0 {
		return fmt.Errorf("%d batch(es) failed", rep.FailedBatches)
	}
	return nil
}
