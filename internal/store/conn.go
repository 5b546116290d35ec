// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store opens short-lived connections to the record store with
// retry and backoff, and probes the store's health.
//
// A connection is opened per cycle and per health check and closed right
// after, so no connection sits idle through the hours between cycles.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/metrics"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var (
	// ErrConnectivity marks a store that could not be reached within the retry budget.
	ErrConnectivity = errors.New("store unreachable")

	// ErrSchema marks a store that is reachable but lacks the record table.
	ErrSchema = errors.New("record table missing")
)

// OpenFunc opens a database handle. Tests substitute failing or counting openers.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

// RetryObserver is told about every failed attempt and the delay before the
// next one (zero after the last attempt).
type RetryObserver func(attempt int, delay time.Duration, err error)

// Conn is one open store connection.
type Conn struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	timeout time.Duration
}

// CallContext bounds a single store call by the configured per-call timeout.
func (c *Conn) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Close releases the connection.
func (c *Conn) Close() error {
	return c.DB.Close()
}

// Totals returns the row count and the number of distinct categories.
func (c *Conn) Totals(ctx context.Context) (rows, categories int64, err error) {
	callCtx, cancel := c.CallContext(ctx)
	defer cancel()

	q := fmt.Sprintf("SELECT count(*), count(DISTINCT category_label) FROM %s", c.Table)
	if err := c.DB.QueryRowContext(callCtx, q).Scan(&rows, &categories); err != nil {
		return 0, 0, fmt.Errorf("counting rows: %w", err)
	}
	return rows, categories, nil
}

// Manager opens connections to the store.
type Manager struct {
	cfg      types.StoreConfig
	dialect  Dialect
	open     OpenFunc
	metrics  *metrics.Metrics
	observer RetryObserver
	log      *log.Entry
}

// Option customises a Manager.
type Option func(*Manager)

// WithOpenFunc replaces sql.Open.
func WithOpenFunc(open OpenFunc) Option { return func(m *Manager) { m.open = open } }

// WithMetrics records connection attempts.
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// WithRetryObserver reports each failed attempt.
func WithRetryObserver(o RetryObserver) Option { return func(m *Manager) { m.observer = o } }

// NewManager validates cfg and returns a Manager.
func NewManager(cfg types.StoreConfig, logger log.FieldLogger, opts ...Option) (*Manager, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if !ValidTableName(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryMultiplier < 1 {
		cfg.RetryMultiplier = 2
	}

	m := &Manager{
		cfg:     cfg,
		dialect: dialect,
		open:    sql.Open,
		log:     logging.Component(logger, "store"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dialect returns the SQL dialect of the configured driver.
func (m *Manager) Dialect() Dialect { return m.dialect }

// Backoff returns the delay after the zero-based failed attempt n:
// base, base*k, base*k^2, ... for multiplier k.
func (m *Manager) Backoff(n uint) time.Duration {
	return time.Duration(float64(m.cfg.RetryBaseDelay) * math.Pow(m.cfg.RetryMultiplier, float64(n)))
}

// Connect opens a connection, retrying up to MaxRetries attempts with
// exponential backoff between them. After the last failed attempt it
// returns an error wrapping ErrConnectivity.
func (m *Manager) Connect(ctx context.Context) (*Conn, error) {
	attempts := m.cfg.MaxRetries
	var conn *Conn

	err := retry.Do(
		func() error {
			c, err := m.attempt(ctx)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Attempts(uint(attempts)),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return m.Backoff(n)
		}),
		retry.OnRetry(func(n uint, err error) {
			var next time.Duration
			if int(n) < attempts-1 {
				next = m.Backoff(n)
			}
			entry := m.log.WithError(err).WithField("attempt", fmt.Sprintf("%d/%d", n+1, attempts))
			if next > 0 {
				entry.WithField("retry_in", next).Warn("store connection failed")
			} else {
				entry.Error("store connection failed, no attempts left")
			}
			if m.observer != nil {
				m.observer(int(n)+1, next, err)
			}
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrConnectivity, attempts, err)
	}
	return conn, nil
}

// ConnectOnce makes a single connection attempt, for health checks that
// must not stall the loop.
func (m *Manager) ConnectOnce(ctx context.Context) (*Conn, error) {
	conn, err := m.attempt(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return conn, nil
}

func (m *Manager) attempt(ctx context.Context) (*Conn, error) {
	db, err := m.open(m.cfg.Driver, m.cfg.DSN)
	if err == nil {
		db.SetMaxOpenConns(1)
		pingCtx, cancel := context.WithTimeout(ctx, m.cfg.PerCallTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			db.Close()
		}
	}
	m.metrics.RecordConnectAttempt(err)
	if err != nil {
		return nil, err
	}

	return &Conn{
		DB:      db,
		Dialect: m.dialect,
		Table:   m.cfg.Table,
		timeout: m.cfg.PerCallTimeout,
	}, nil
}

// EnsureSchema creates the record table if it does not exist. Provisioning
// normally happens outside the monitor; this serves `store init` and tests.
func EnsureSchema(ctx context.Context, conn *Conn) error {
	for _, stmt := range conn.Dialect.CreateTable(conn.Table) {
		callCtx, cancel := conn.CallContext(ctx)
		_, err := conn.DB.ExecContext(callCtx, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
