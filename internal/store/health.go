// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// HealthStatus is the result of one store probe.
type HealthStatus struct {
	Health     types.StoreHealth
	TotalRows  int64
	RecentRows int64
	Latency    time.Duration
	Err        error
}

// Unreachable builds the status reported when no connection could be made.
func Unreachable(err error) HealthStatus {
	return HealthStatus{Health: types.HealthUnreachable, Err: err}
}

// HealthCheck probes an open connection: a round-trip query, the presence
// of the record table, and row counts overall and within window of now.
// A missing table yields ErrSchema and an unhealthy status. The counts are
// informational; a failure to count does not make the store unhealthy.
func HealthCheck(ctx context.Context, conn *Conn, now time.Time, window time.Duration) (status HealthStatus) {
	start := time.Now()
	status.Health = types.HealthUnhealthy
	defer func() { status.Latency = time.Since(start) }()

	if err := conn.ping(ctx); err != nil {
		status.Err = fmt.Errorf("probe: %w", err)
		return status
	}

	exists, err := conn.tableExists(ctx)
	if err != nil {
		status.Err = fmt.Errorf("checking table %s: %w", conn.Table, err)
		return status
	}
	if !exists {
		status.Err = fmt.Errorf("%w: %s", ErrSchema, conn.Table)
		return status
	}

	status.Health = types.HealthHealthy
	status.TotalRows, _, err = conn.Totals(ctx)
	if err == nil {
		status.RecentRows, err = conn.recentRows(ctx, now.Add(-window))
	}
	if err != nil {
		status.Err = err
	}
	return status
}

// Healthy reports whether the probe passed.
func (s HealthStatus) Healthy() bool {
	return s.Health == types.HealthHealthy
}

// SchemaMissing reports whether the probe failed on the record table.
func (s HealthStatus) SchemaMissing() bool {
	return errors.Is(s.Err, ErrSchema)
}

func (c *Conn) ping(ctx context.Context) error {
	callCtx, cancel := c.CallContext(ctx)
	defer cancel()

	var one int
	return c.DB.QueryRowContext(callCtx, "SELECT 1").Scan(&one)
}

func (c *Conn) tableExists(ctx context.Context) (bool, error) {
	callCtx, cancel := c.CallContext(ctx)
	defer cancel()

	var n int
	if err := c.DB.QueryRowContext(callCtx, c.Dialect.TableExists(), c.Table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Conn) recentRows(ctx context.Context, since time.Time) (int64, error) {
	callCtx, cancel := c.CallContext(ctx)
	defer cancel()

	var n int64
	if err := c.DB.QueryRowContext(callCtx, c.Dialect.RecentRows(c.Table), c.Dialect.Timestamp(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting recent rows: %w", err)
	}
	return n, nil
}

// Probe makes one connection attempt, checks the store's health within the
// configured recent window, and closes the connection.
func (m *Manager) Probe(ctx context.Context, now time.Time) HealthStatus {
	conn, err := m.ConnectOnce(ctx)
	if err != nil {
		return Unreachable(err)
	}
	defer conn.Close()
	return HealthCheck(ctx, conn, now, m.cfg.RecentWindow)
}
