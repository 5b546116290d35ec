// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ingest-monitor/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Record store provisioning",
}

var storeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the record table if it does not exist",
	Long: `Init creates the persisted-record table, with its unique key on
content_hash and an index on created_at, in the configured store. It is
safe to run against a store that is already provisioned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := store.NewManager(cfg.Store, logger)
		if err != nil {
			return err
		}
		ctx := context.Background()
		conn, err := mgr.Connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := store.EnsureSchema(ctx, conn); err != nil {
			return err
		}
		fmt.Printf("table %s ready (%s)\n", conn.Table, cfg.Store.Driver)
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storeInitCmd)
	rootCmd.AddCommand(storeCmd)
}
