// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/internal/store/storetest"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

func TestHealthCheck_Healthy(t *testing.T) {
	cfg := storetest.Config(t)
	conn := storetest.Open(t, cfg)

	_, err := conn.DB.Exec(conn.Dialect.InsertOrSkip(conn.Table),
		"0123456789abcdef0123456789abcdef", "GGACGTACGTACGTACGTAC", "BRCA1",
		85.0, 55.0, 12.0, "validated", "PUBMED", nil, nil, nil)
	require.NoError(t, err)

	status := store.HealthCheck(context.Background(), conn, time.Now(), 24*time.Hour)
	require.NoError(t, status.Err)
	assert.True(t, status.Healthy())
	assert.Equal(t, int64(1), status.TotalRows)
	assert.Equal(t, int64(1), status.RecentRows)
}

func TestHealthCheck_RecentWindowExcludesOldRows(t *testing.T) {
	cfg := storetest.Config(t)
	conn := storetest.Open(t, cfg)

	_, err := conn.DB.Exec(conn.Dialect.InsertOrSkip(conn.Table),
		"0123456789abcdef0123456789abcdef", "GGACGTACGTACGTACGTAC", "BRCA1",
		85.0, 55.0, 12.0, "validated", "PUBMED", nil, nil, nil)
	require.NoError(t, err)

	status := store.HealthCheck(context.Background(), conn, time.Now().Add(48*time.Hour), 24*time.Hour)
	assert.True(t, status.Healthy())
	assert.Equal(t, int64(1), status.TotalRows)
	assert.Equal(t, int64(0), status.RecentRows)
}

func TestHealthCheck_MissingTable(t *testing.T) {
	cfg := storetest.Config(t)
	conn, err := storetest.Manager(t, cfg).Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	status := store.HealthCheck(context.Background(), conn, time.Now(), time.Hour)
	assert.Equal(t, types.HealthUnhealthy, status.Health)
	assert.True(t, status.SchemaMissing())
}

func TestHealthCheck_ClosedConnection(t *testing.T) {
	cfg := storetest.Config(t)
	conn, err := storetest.Manager(t, cfg).Connect(context.Background())
	require.NoError(t, err)
	conn.Close()

	status := store.HealthCheck(context.Background(), conn, time.Now(), time.Hour)
	assert.False(t, status.Healthy())
	assert.False(t, status.SchemaMissing())
	assert.Error(t, status.Err)
}

func TestUnreachable(t *testing.T) {
	status := store.Unreachable(store.ErrConnectivity)
	assert.Equal(t, types.HealthUnreachable, status.Health)
	assert.False(t, status.Healthy())
}

func TestProbe(t *testing.T) {
	cfg := storetest.Config(t)
	storetest.Open(t, cfg)

	status := storetest.Manager(t, cfg).Probe(context.Background(), time.Now())
	assert.True(t, status.Healthy(), "%v", status.Err)

	cfg.DSN = "file:/nonexistent/dir/records.db?mode=ro"
	status = storetest.Manager(t, cfg).Probe(context.Background(), time.Now())
	assert.Equal(t, types.HealthUnreachable, status.Health)
	assert.ErrorIs(t, status.Err, store.ErrConnectivity)
}
