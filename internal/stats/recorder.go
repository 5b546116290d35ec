// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats accumulates lifetime counters for the monitor and persists
// them as a JSON snapshot.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/metrics"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Recorder owns the lifetime counters. It belongs to the scheduler loop and
// is not safe for concurrent use.
type Recorder struct {
	clock   clock.PassiveClock
	path    string
	started time.Time
	sampler Sampler
	metrics *metrics.Metrics
	log     *log.Entry

	totals   types.StatsSnapshot
	resource ResourceSample
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithSampler replaces the procfs sampler.
func WithSampler(s Sampler) Option { return func(r *Recorder) { r.sampler = s } }

// WithMetrics mirrors counters into Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Recorder) { r.metrics = m } }

// NewRecorder returns a Recorder writing snapshots to path. Uptime is
// measured from the moment of construction.
func NewRecorder(path string, clk clock.PassiveClock, logger log.FieldLogger, opts ...Option) *Recorder {
	r := &Recorder{
		clock:   clk,
		path:    path,
		started: clk.Now(),
		log:     logging.Component(logger, "stats"),
		totals: types.StatsSnapshot{
			BySource:    make(map[string]types.SourceState),
			StoreHealth: types.HealthUnknown,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sampler == nil {
		r.sampler = NewProcSampler(clk)
	}
	return r
}

// Load restores lifetime counters from a previous snapshot at the
// recorder's path, so totals carry across restarts. A missing file is not
// an error; an unreadable one is reported and the counters stay at zero.
func (r *Recorder) Load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var prev types.StatsSnapshot
	if err := json.Unmarshal(data, &prev); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", r.path, err)
	}

	r.totals.TotalCycles = prev.TotalCycles
	r.totals.SuccessfulCycles = prev.SuccessfulCycles
	r.totals.FailedCycles = prev.FailedCycles
	r.totals.TotalRecordsAdded = prev.TotalRecordsAdded
	r.totals.TotalDuplicates = prev.TotalDuplicates
	r.totals.LastError = prev.LastError
	for name, st := range prev.BySource {
		if cur, ok := r.totals.BySource[name]; ok {
			st.Enabled = cur.Enabled
		}
		r.totals.BySource[name] = st
	}
	r.log.WithFields(log.Fields{
		"total_cycles":  prev.TotalCycles,
		"records_added": prev.TotalRecordsAdded,
	}).Info("restored counters from previous snapshot")
	return nil
}

// RegisterSource adds a source to the per-source table.
func (r *Recorder) RegisterSource(name string, enabled bool) {
	st := r.totals.BySource[name]
	st.Enabled = enabled
	r.totals.BySource[name] = st
}

// BeginCycle counts an attempted cycle and returns its number.
func (r *Recorder) BeginCycle() int64 {
	r.totals.TotalCycles++
	return r.totals.TotalCycles
}

// RecordSource updates a source's state after its poll completed.
func (r *Recorder) RecordSource(name string, records int, at time.Time) {
	st := r.totals.BySource[name]
	st.LastCheck = &at
	st.RecordsAdded += int64(records)
	r.totals.BySource[name] = st
}

// Record folds a finished cycle into the lifetime counters. Anything but a
// succeeded cycle counts as failed and sets last_error.
func (r *Recorder) Record(cycle types.CycleSummary, cause error) {
	switch cycle.Outcome {
	case types.OutcomeSucceeded:
		r.totals.SuccessfulCycles++
	default:
		r.totals.FailedCycles++
		if cause == nil {
			cause = fmt.Errorf("cycle %d %s", cycle.Number, cycle.Outcome)
		}
		r.SetLastError(cause)
	}

	r.totals.TotalRecordsAdded += int64(max(cycle.Inserted, 0))
	r.totals.TotalDuplicates += int64(max(cycle.Duplicates, 0))
	r.totals.LastCycle = &cycle

	r.metrics.RecordCycle(string(cycle.Outcome), time.Duration(cycle.DurationSeconds*float64(time.Second)))
}

// SetLastError records err as the most recent failure.
func (r *Recorder) SetLastError(err error) {
	msg := err.Error()
	r.totals.LastError = &msg
}

// SetStoreHealth records the result of a health check.
func (r *Recorder) SetStoreHealth(status store.HealthStatus) {
	r.totals.StoreHealth = status.Health
	if status.Healthy() {
		r.totals.StoreTotalRows = status.TotalRows
		r.totals.StoreRecentRows = status.RecentRows
	}
	r.metrics.SetStoreHealthy(status.Healthy())
}

// SampleResources takes a resource reading and keeps it for the next
// snapshot. A failed reading is logged and the previous one kept.
func (r *Recorder) SampleResources() ResourceSample {
	sample, err := r.sampler.Sample()
	if err != nil {
		r.log.WithError(err).Warn("resource sample failed")
		return r.resource
	}
	r.resource = sample
	r.metrics.SetResources(sample.MemoryMB, sample.CPUPercent)
	return sample
}

// Uptime returns the time since the recorder was created.
func (r *Recorder) Uptime() time.Duration {
	return r.clock.Since(r.started)
}

// Current returns the snapshot as it would be written now.
func (r *Recorder) Current() types.StatsSnapshot {
	snap := r.totals
	snap.BySource = make(map[string]types.SourceState, len(r.totals.BySource))
	for k, v := range r.totals.BySource {
		snap.BySource[k] = v
	}
	snap.UptimeSeconds = int64(r.Uptime().Seconds())
	snap.MemoryUsageMB = round2(r.resource.MemoryMB)
	snap.CPUUsagePercent = round2(r.resource.CPUPercent)
	snap.LastUpdate = r.clock.Now()
	return snap
}

// Snapshot writes the current counters to the snapshot path, replacing the
// previous file atomically. Failure is logged and returned; the in-memory
// counters are unaffected either way.
func (r *Recorder) Snapshot() error {
	if err := writeAtomic(r.path, r.Current()); err != nil {
		r.log.WithError(err).WithField("path", r.path).Error("stats snapshot not saved")
		return err
	}
	r.log.WithField("path", r.path).Debug("stats snapshot saved")
	return nil
}

// ReadSnapshot loads a snapshot file.
func ReadSnapshot(path string) (types.StatsSnapshot, error) {
	var snap types.StatsSnapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}

func writeAtomic(path string, snap types.StatsSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
