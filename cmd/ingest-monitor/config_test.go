// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ingest-monitor/internal/secrets"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	configErr = nil
	bindEnv()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	c, err := loadConfig(nil)
	require.NoError(t, err)

	def := types.DefaultConfig()
	assert.Equal(t, def.Monitor, c.Monitor)
	assert.Equal(t, def.Store, c.Store)
	assert.Equal(t, def.Sources, c.Sources)
	assert.Equal(t, "info", c.Log.Level)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("INGEST_MONITOR_STORE_DRIVER", types.DriverPostgres)
	t.Setenv("INGEST_MONITOR_STORE_DSN", "postgres://ingest@db/records")
	t.Setenv("INGEST_MONITOR_MONITOR_CYCLE_INTERVAL", "1h")
	t.Setenv("INGEST_MONITOR_METRICS_ADDR", ":9102")

	c, err := loadConfig(map[string]string{secrets.StoreDSN: "from-secret"})
	require.NoError(t, err)

	assert.Equal(t, types.DriverPostgres, c.Store.Driver)
	assert.Equal(t, "postgres://ingest@db/records", c.Store.DSN)
	assert.Equal(t, time.Hour, c.Monitor.CycleInterval)
	assert.Equal(t, ":9102", c.Metrics.Addr)
}

func TestLoadConfig_SecretsFillGaps(t *testing.T) {
	resetViper(t)

	c, err := loadConfig(map[string]string{
		secrets.StoreDSN:    "file:/data/records.db",
		secrets.GitHubToken: "ghp_abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "file:/data/records.db", c.Store.DSN)
	for _, s := range c.Sources {
		if s.Kind == types.SourceGitHub {
			assert.Equal(t, "ghp_abc", s.Token)
		} else {
			assert.Empty(t, s.Token)
		}
	}
}

func TestLoadConfig_FileReplacesSources(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "ingest-monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`monitor:
  cycle_interval: 2h
  stats_path: /tmp/stats.json
store:
  table: guides
sources:
  - name: BROAD
    kind: catalog
    enabled: true
    min_records: 5
    max_records: 10
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	c, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, c.Monitor.CycleInterval)
	assert.Equal(t, 15*time.Minute, c.Monitor.HeartbeatInterval)
	assert.Equal(t, "/tmp/stats.json", c.Monitor.StatsPath)
	assert.Equal(t, "guides", c.Store.Table)
	require.Len(t, c.Sources, 1)
	assert.Equal(t, types.SourceConfig{Name: "BROAD", Kind: types.SourceCatalog, Enabled: true, MinRecords: 5, MaxRecords: 10}, c.Sources[0])
}

func TestLoadConfig_ReportsUnreadableFile(t *testing.T) {
	resetViper(t)
	configErr = os.ErrPermission

	_, err := loadConfig(nil)
	assert.ErrorIs(t, err, os.ErrPermission)
}
