// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StoreHealth is the last observed state of the record store.
type StoreHealth string

const (
	HealthUnknown     StoreHealth = "unknown"
	HealthHealthy     StoreHealth = "healthy"
	HealthUnhealthy   StoreHealth = "unhealthy"
	HealthUnreachable StoreHealth = "unreachable"
)

// SourceState is the per-source bookkeeping kept for the process lifetime.
type SourceState struct {
	Enabled      bool       `json:"enabled"`
	LastCheck    *time.Time `json:"last_check"`
	RecordsAdded int64      `json:"records_added"`
}

// CycleOutcome names how a cycle ended.
type CycleOutcome string

const (
	OutcomeSucceeded   CycleOutcome = "succeeded"
	OutcomeFailed      CycleOutcome = "failed"
	OutcomeInterrupted CycleOutcome = "interrupted"
)

// CycleSummary describes the most recent cycle in the snapshot.
type CycleSummary struct {
	ID              string       `json:"id"`
	Number          int64        `json:"number"`
	StartedAt       time.Time    `json:"started_at"`
	DurationSeconds float64      `json:"duration_seconds"`
	Fetched         int          `json:"fetched"`
	Inserted        int          `json:"inserted"`
	Duplicates      int          `json:"duplicates"`
	FailedBatches   int          `json:"failed_batches"`
	FailedSources   []string     `json:"failed_sources,omitempty"`
	Outcome         CycleOutcome `json:"outcome"`
}

// StatsSnapshot is the JSON document written after every cycle and at shutdown.
type StatsSnapshot struct {
	TotalCycles       int64                  `json:"total_cycles"`
	SuccessfulCycles  int64                  `json:"successful_cycles"`
	FailedCycles      int64                  `json:"failed_cycles"`
	TotalRecordsAdded int64                  `json:"total_records_added"`
	TotalDuplicates   int64                  `json:"total_duplicates"`
	BySource          map[string]SourceState `json:"by_source"`
	UptimeSeconds     int64                  `json:"uptime_seconds"`
	LastError         *string                `json:"last_error"`
	StoreHealth       StoreHealth            `json:"store_health"`
	MemoryUsageMB     float64                `json:"memory_usage_mb"`
	CPUUsagePercent   float64                `json:"cpu_usage_percent"`
	LastUpdate        time.Time              `json:"last_update"`

	LastCycle       *CycleSummary `json:"last_cycle,omitempty"`
	StoreTotalRows  int64         `json:"store_total_rows"`
	StoreRecentRows int64         `json:"store_recent_rows"`
}
