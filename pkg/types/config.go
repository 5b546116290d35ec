// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by sources that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ingest-monitor/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// MonitorConfig holds the scheduler intervals and the stats snapshot location.
type MonitorConfig struct {
	// CycleInterval is the time between the starts of two collection cycles (default 6h).
	CycleInterval time.Duration `json:"cycle_interval" yaml:"cycle_interval" mapstructure:"cycle_interval"`

	// HeartbeatInterval is the time between liveness log lines (default 15m).
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// HealthCheckInterval is the time between store probes (default 30m).
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval" mapstructure:"health_check_interval"`

	// TickInterval is how often the loop wakes to check its timers (default 1s).
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval" mapstructure:"tick_interval"`

	// FailureCooldown is the pause after a cycle that could not reach the store (default 5m).
	FailureCooldown time.Duration `json:"failure_cooldown" yaml:"failure_cooldown" mapstructure:"failure_cooldown"`

	// LoopErrorCooldown is the pause after an unexpected error in the loop (default 1m).
	LoopErrorCooldown time.Duration `json:"loop_error_cooldown" yaml:"loop_error_cooldown" mapstructure:"loop_error_cooldown"`

	// SourceTimeout bounds one source's whole fetch (default 2m).
	SourceTimeout time.Duration `json:"source_timeout" yaml:"source_timeout" mapstructure:"source_timeout"`

	// FetchWindow is the look-back window handed to every source (default 7 days).
	FetchWindow time.Duration `json:"fetch_window" yaml:"fetch_window" mapstructure:"fetch_window"`

	// StatsPath is the JSON snapshot file, overwritten after every cycle.
	StatsPath string `json:"stats_path" yaml:"stats_path" mapstructure:"stats_path"`
}

// Store drivers accepted in StoreConfig.Driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// StoreConfig holds connection, retry and batching settings for the record store.
type StoreConfig struct {
	// Driver is the database/sql driver name: sqlite3, pgx or mysql.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// Table is the persisted-record table name.
	Table string `json:"table" yaml:"table" mapstructure:"table"`

	// BatchSize is the number of records committed per transaction (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// MaxRetries is the number of connection attempts before giving up (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryBaseDelay is the delay after the first failed connection attempt (default 10s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`

	// RetryMultiplier scales the delay after every further failed attempt (default 2).
	RetryMultiplier float64 `json:"retry_multiplier" yaml:"retry_multiplier" mapstructure:"retry_multiplier"`

	// PerCallTimeout bounds every single store call (default 30s).
	PerCallTimeout time.Duration `json:"per_call_timeout" yaml:"per_call_timeout" mapstructure:"per_call_timeout"`

	// RecentWindow is the activity window reported by health checks (default 24h).
	RecentWindow time.Duration `json:"recent_window" yaml:"recent_window" mapstructure:"recent_window"`
}

// Source kinds accepted in SourceConfig.Kind.
const (
	SourcePubMed  = "pubmed"
	SourceGitHub  = "github"
	SourceBioRxiv = "biorxiv"
	SourceCatalog = "catalog"
)

// SourceConfig describes one upstream source polled every cycle.
type SourceConfig struct {
	// Name is the key used in logs and in the stats snapshot (e.g. "PUBMED").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Kind selects the adapter: pubmed, github, biorxiv or catalog.
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Enabled controls whether the source is polled.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Tag is the provenance tag stamped on produced records (e.g. "PUBMED_NEW").
	Tag string `json:"tag" yaml:"tag" mapstructure:"tag"`

	// BaseURL overrides the upstream endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Queries are the search terms sent upstream, one request each.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty" mapstructure:"queries"`

	// Token is an optional API token sent as a bearer credential.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// RatePerSecond caps outbound requests (default 2).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MinRecords and MaxRecords bound the per-fetch output of catalog sources.
	MinRecords int `json:"min_records,omitempty" yaml:"min_records,omitempty" mapstructure:"min_records"`
	MaxRecords int `json:"max_records,omitempty" yaml:"max_records,omitempty" mapstructure:"max_records"`

	// EfficiencyBoost is added to catalog record efficiency, capped at 98.
	EfficiencyBoost float64 `json:"efficiency_boost,omitempty" yaml:"efficiency_boost,omitempty" mapstructure:"efficiency_boost"`

	// ForceValidated marks every catalog record as validated.
	ForceValidated bool `json:"force_validated,omitempty" yaml:"force_validated,omitempty" mapstructure:"force_validated"`

	// Seed seeds the record generator; 0 uses the current time.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logrus level name (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives a rotated copy of the log stream.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g. ":9102"); empty disables it.
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups every setting of the monitor process.
type Config struct {
	Monitor MonitorConfig  `json:"monitor" yaml:"monitor" mapstructure:"monitor"`
	Store   StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	HTTP    HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Sources []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Log     LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Monitor: MonitorConfig{
			CycleInterval:       6 * time.Hour,
			HeartbeatInterval:   15 * time.Minute,
			HealthCheckInterval: 30 * time.Minute,
			TickInterval:        time.Second,
			FailureCooldown:     5 * time.Minute,
			LoopErrorCooldown:   time.Minute,
			SourceTimeout:       2 * time.Minute,
			FetchWindow:         7 * 24 * time.Hour,
			StatsPath:           "/var/log/ingest-monitor/stats.json",
		},
		Store: StoreConfig{
			Driver:          DriverSQLite,
			DSN:             "ingest-monitor.db",
			Table:           "crispr_guides_mega",
			BatchSize:       200,
			MaxRetries:      5,
			RetryBaseDelay:  10 * time.Second,
			RetryMultiplier: 2,
			PerCallTimeout:  30 * time.Second,
			RecentWindow:    24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "ingest-monitor/0.1",
		},
		Sources: DefaultSources(),
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// DefaultSources returns the five sources of the reference deployment.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name: "PUBMED", Kind: SourcePubMed, Enabled: true, Tag: "PUBMED_NEW",
			Queries:       []string{"CRISPR guide RNA", "CRISPR knockout", "CRISPR screen", "sgRNA design"},
			RatePerSecond: 2,
		},
		{
			Name: "GITHUB", Kind: SourceGitHub, Enabled: true, Tag: "GITHUB_DATASET",
			Queries:       []string{"CRISPR guide RNA"},
			RatePerSecond: 2,
		},
		{
			Name: "ADDGENE", Kind: SourceCatalog, Enabled: true, Tag: "ADDGENE_PLASMID",
			MinRecords: 20, MaxRecords: 60,
		},
		{
			Name: "BIORXIV", Kind: SourceBioRxiv, Enabled: true, Tag: "BIORXIV_PREPRINT",
			RatePerSecond: 2,
		},
		{
			Name: "BROAD", Kind: SourceCatalog, Enabled: true, Tag: "BROAD_VALIDATED",
			MinRecords: 50, MaxRecords: 150, EfficiencyBoost: 5, ForceValidated: true,
		},
	}
}

// Validate reports the first setting that would make the monitor misbehave.
func (c Config) Validate() error {
	m := c.Monitor
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"monitor.cycle_interval", m.CycleInterval},
		{"monitor.heartbeat_interval", m.HeartbeatInterval},
		{"monitor.health_check_interval", m.HealthCheckInterval},
		{"monitor.tick_interval", m.TickInterval},
		{"monitor.source_timeout", m.SourceTimeout},
		{"store.retry_base_delay", c.Store.RetryBaseDelay},
		{"store.per_call_timeout", c.Store.PerCallTimeout},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", iv.name, iv.d)
		}
	}
	for _, iv := range intervals[:3] {
		if m.TickInterval >= iv.d {
			return fmt.Errorf("monitor.tick_interval (%v) must be shorter than %s (%v)", m.TickInterval, iv.name, iv.d)
		}
	}
	if m.FailureCooldown < 0 || m.LoopErrorCooldown < 0 {
		return fmt.Errorf("cooldowns must not be negative")
	}
	if m.StatsPath == "" {
		return fmt.Errorf("monitor.stats_path is required")
	}

	s := c.Store
	switch s.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported store.driver %q (want %s, %s or %s)", s.Driver, DriverSQLite, DriverPostgres, DriverMySQL)
	}
	if s.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if s.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("store.batch_size must be positive, got %d", s.BatchSize)
	}
	if s.MaxRetries <= 0 {
		return fmt.Errorf("store.max_retries must be positive, got %d", s.MaxRetries)
	}
	if s.RetryMultiplier < 1 {
		return fmt.Errorf("store.retry_multiplier must be at least 1, got %v", s.RetryMultiplier)
	}

	seen := make(map[string]bool)
	for _, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source without a name")
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		switch src.Kind {
		case SourcePubMed, SourceGitHub, SourceBioRxiv, SourceCatalog:
		default:
			return fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind)
		}
	}
	return nil
}
