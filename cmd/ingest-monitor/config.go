// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/ingest-monitor/internal/secrets"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// configErr holds a config file that exists but could not be read. It is
// reported when the command runs rather than from cobra's initializer.
var configErr error

// bindEnv maps settings to INGEST_MONITOR_* variables, dots replaced by
// underscores (store.dsn is INGEST_MONITOR_STORE_DSN).
func bindEnv() {
	viper.SetEnvPrefix("INGEST_MONITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// registerDefaults makes every scalar setting known to viper, so
// environment variables such as INGEST_MONITOR_STORE_DRIVER take effect
// without a config file.
func registerDefaults(def types.Config) {
	for key, val := range map[string]any{
		"monitor.cycle_interval":        def.Monitor.CycleInterval,
		"monitor.heartbeat_interval":    def.Monitor.HeartbeatInterval,
		"monitor.health_check_interval": def.Monitor.HealthCheckInterval,
		"monitor.tick_interval":         def.Monitor.TickInterval,
		"monitor.failure_cooldown":      def.Monitor.FailureCooldown,
		"monitor.loop_error_cooldown":   def.Monitor.LoopErrorCooldown,
		"monitor.source_timeout":        def.Monitor.SourceTimeout,
		"monitor.fetch_window":          def.Monitor.FetchWindow,
		"monitor.stats_path":            def.Monitor.StatsPath,
		"store.driver":                  def.Store.Driver,
		"store.table":                   def.Store.Table,
		"store.batch_size":              def.Store.BatchSize,
		"store.max_retries":             def.Store.MaxRetries,
		"store.retry_base_delay":        def.Store.RetryBaseDelay,
		"store.retry_multiplier":        def.Store.RetryMultiplier,
		"store.per_call_timeout":        def.Store.PerCallTimeout,
		"store.recent_window":           def.Store.RecentWindow,
		"http.timeout":                  def.HTTP.Timeout,
		"http.user_agent":               def.HTTP.UserAgent,
		"log.level":                     def.Log.Level,
		"log.format":                    def.Log.Format,
		"log.file":                      def.Log.File,
		"log.max_size_mb":               def.Log.MaxSizeMB,
		"log.max_backups":               def.Log.MaxBackups,
		"log.max_age_days":              def.Log.MaxAgeDays,
		"log.compress":                  def.Log.Compress,
		"metrics.addr":                  def.Metrics.Addr,
	} {
		viper.SetDefault(key, val)
	}
	// The DSN has no default here so a secret can fill it in.
	viper.BindEnv("store.dsn")
}

// loadConfig resolves the configuration: built-in defaults, then the config
// file, then INGEST_MONITOR_* environment variables and flags. Secrets fill
// the store DSN and GitHub tokens left empty by all of those.
func loadConfig(s map[string]string) (types.Config, error) {
	if configErr != nil {
		return types.Config{}, fmt.Errorf("reading config file: %w", configErr)
	}

	def := types.DefaultConfig()
	registerDefaults(def)

	c := def
	c.Store.DSN = ""
	if viper.IsSet("sources") {
		c.Sources = nil
	}
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if c.Store.DSN == "" {
		c.Store.DSN = s[secrets.StoreDSN]
	}
	if c.Store.DSN == "" {
		c.Store.DSN = def.Store.DSN
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == types.SourceGitHub && c.Sources[i].Token == "" {
			c.Sources[i].Token = s[secrets.GitHubToken]
		}
	}
	return c, nil
}
