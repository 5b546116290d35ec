// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the record store once and print its health",
	Long: `Health makes a single connection attempt, checks that the record table
exists, and reports total rows and rows created within the recent window.
Exits non-zero unless the store is healthy.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().Bool("json", false, "output status as JSON")

	rootCmd.AddCommand(healthCmd)
}

type healthReport struct {
	Health     types.StoreHealth `json:"health"`
	TotalRows  int64             `json:"total_rows"`
	RecentRows int64             `json:"recent_rows"`
	LatencyMS  int64             `json:"latency_ms"`
	Error      string            `json:"error,omitempty"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	mgr, err := store.NewManager(cfg.Store, logger)
	if err != nil {
		return err
	}
	status := mgr.Probe(context.Background(), time.Now())

	rep := healthReport{
		Health:     status.Health,
		TotalRows:  status.TotalRows,
		RecentRows: status.RecentRows,
		LatencyMS:  status.Latency.Milliseconds(),
	}
	if status.Err != nil {
		rep.Error = status.Err.Error()
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		fmt.Printf("store:       %s (%s)\n", cfg.Store.Driver, cfg.Store.Table)
		fmt.Printf("health:      %s\n", rep.Health)
		fmt.Printf("latency:     %dms\n", rep.LatencyMS)
		fmt.Printf("rows:        %d\n", rep.TotalRows)
		fmt.Printf("recent rows: %d (last %s)\n", rep.RecentRows, cfg.Store.RecentWindow)
		if rep.Error != "" {
			fmt.Printf("error:       %s\n", rep.Error)
		}
	}

	if !status.Healthy() {
		return fmt.Errorf("store is %s", status.Health)
	}
	return nil
}
