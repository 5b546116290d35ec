// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storetest provides throwaway SQLite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Config returns a store configuration pointing at a fresh SQLite file in
// a temporary directory, with millisecond retry delays.
func Config(t *testing.T) types.StoreConfig {
	t.Helper()
	cfg := types.DefaultConfig().Store
	cfg.Driver = types.DriverSQLite
	cfg.DSN = filepath.Join(t.TempDir(), "records.db")
	cfg.RetryBaseDelay = time.Millisecond
	cfg.PerCallTimeout = 5 * time.Second
	return cfg
}

// Manager returns a Manager for cfg that logs nowhere.
func Manager(t *testing.T, cfg types.StoreConfig, opts ...store.Option) *store.Manager {
	t.Helper()
	logger, _ := test.NewNullLogger()
	m, err := store.NewManager(cfg, logger, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// Open connects to cfg's store and creates the record table. The
// connection is closed when the test ends.
func Open(t *testing.T, cfg types.StoreConfig) *store.Conn {
	t.Helper()
	conn, err := Manager(t, cfg).Connect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := store.EnsureSchema(context.Background(), conn); err != nil {
		t.Fatal(err)
	}
	return conn
}

// CountRows returns the number of rows in the record table.
func CountRows(t *testing.T, conn *store.Conn) int64 {
	t.Helper()
	rows, _, err := conn.Totals(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return rows
}
