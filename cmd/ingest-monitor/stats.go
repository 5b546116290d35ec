// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ingest-monitor/internal/stats"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the monitor's latest stats snapshot",
	Long: `Stats reads the JSON snapshot the monitor writes after every cycle and
at shutdown, and prints it as a summary or, with --json, verbatim.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output the snapshot as JSON")
	statsCmd.Flags().String("path", "", "snapshot file (default: monitor.stats_path)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfg.Monitor.StatsPath
	}
	snap, err := stats.ReadSnapshot(path)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	printSnapshot(snap)
	return nil
}

func printSnapshot(s types.StatsSnapshot) {
	fmt.Printf("Last update:  %s\n", s.LastUpdate.Format(time.RFC3339))
	fmt.Printf("Uptime:       %s\n", time.Duration(s.UptimeSeconds)*time.Second)
	fmt.Printf("Cycles:       %d (%d succeeded, %d failed)\n", s.TotalCycles, s.SuccessfulCycles, s.FailedCycles)
	fmt.Printf("Records:      %d added, %d duplicates\n", s.TotalRecordsAdded, s.TotalDuplicates)
	fmt.Printf("Store:        %s (%d rows, %d recent)\n", s.StoreHealth, s.StoreTotalRows, s.StoreRecentRows)
	fmt.Printf("Resources:    %.1f MB, %.1f%% CPU\n", s.MemoryUsageMB, s.CPUUsagePercent)
	if s.LastError != nil {
		fmt.Printf("Last error:   %s\n", *s.LastError)
	}
	if c := s.LastCycle; c != nil {
		fmt.Printf("Last cycle:   #%d %s, %d fetched, %d inserted in %.1fs\n",
			c.Number, c.Outcome, c.Fetched, c.Inserted, c.DurationSeconds)
	}

	names := make([]string, 0, len(s.BySource))
	for name := range s.BySource {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Sources:")
	for _, name := range names {
		st := s.BySource[name]
		last := "never"
		if st.LastCheck != nil {
			last = st.LastCheck.Format(time.RFC3339)
		}
		state := "enabled"
		if !st.Enabled {
			state = "disabled"
		}
		fmt.Printf("  %-10s %-8s %6d records  last check %s\n", name, state, st.RecordsAdded, last)
	}
}
