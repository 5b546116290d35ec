// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())

	assert.Equal(t, 6*time.Hour, c.Monitor.CycleInterval)
	assert.Equal(t, 200, c.Store.BatchSize)
	assert.Equal(t, 5, c.Store.MaxRetries)
	assert.Len(t, c.Sources, 5)
}

func TestDefaultSources(t *testing.T) {
	byName := make(map[string]SourceConfig)
	for _, s := range DefaultSources() {
		byName[s.Name] = s
	}

	broad := byName["BROAD"]
	assert.Equal(t, SourceCatalog, broad.Kind)
	assert.True(t, broad.ForceValidated)
	assert.Equal(t, 5.0, broad.EfficiencyBoost)
	assert.Equal(t, 50, broad.MinRecords)
	assert.Equal(t, 150, broad.MaxRecords)

	assert.Equal(t, SourcePubMed, byName["PUBMED"].Kind)
	assert.NotEmpty(t, byName["PUBMED"].Queries)
	assert.Equal(t, SourceBioRxiv, byName["BIORXIV"].Kind)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "non-positive interval",
			mutate: func(c *Config) { c.Monitor.HeartbeatInterval = 0 },
			errMsg: "monitor.heartbeat_interval must be positive",
		},
		{
			name:   "tick not shorter than cycle",
			mutate: func(c *Config) { c.Monitor.TickInterval = 7 * time.Hour },
			errMsg: "must be shorter than monitor.cycle_interval",
		},
		{
			name:   "negative cooldown",
			mutate: func(c *Config) { c.Monitor.FailureCooldown = -time.Second },
			errMsg: "cooldowns must not be negative",
		},
		{
			name:   "missing stats path",
			mutate: func(c *Config) { c.Monitor.StatsPath = "" },
			errMsg: "monitor.stats_path is required",
		},
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Store.Driver = "oracle" },
			errMsg: `unsupported store.driver "oracle"`,
		},
		{
			name:   "missing dsn",
			mutate: func(c *Config) { c.Store.DSN = "" },
			errMsg: "store.dsn is required",
		},
		{
			name:   "zero batch size",
			mutate: func(c *Config) { c.Store.BatchSize = 0 },
			errMsg: "store.batch_size must be positive",
		},
		{
			name:   "zero retries",
			mutate: func(c *Config) { c.Store.MaxRetries = 0 },
			errMsg: "store.max_retries must be positive",
		},
		{
			name:   "shrinking backoff",
			mutate: func(c *Config) { c.Store.RetryMultiplier = 0.5 },
			errMsg: "store.retry_multiplier must be at least 1",
		},
		{
			name:   "duplicate source",
			mutate: func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) },
			errMsg: `duplicate source name "PUBMED"`,
		},
		{
			name:   "unknown source kind",
			mutate: func(c *Config) { c.Sources[1].Kind = "rss" },
			errMsg: `source GITHUB: unknown kind "rss"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
