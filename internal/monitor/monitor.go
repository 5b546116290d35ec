// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitor runs the collection loop: an initial cycle, then one
// cooperative loop that fires cycles, heartbeats and health checks from
// three independent timers until shutdown is requested.
package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/internal/ingest"
	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/source"
	"github.com/pdiddy/ingest-monitor/internal/stats"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// State is the position of the cycle state machine.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateFetching
	StateInserting
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateFetching:
		return "fetching"
	case StateInserting:
		return "inserting"
	case StateReporting:
		return "reporting"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Store opens connections for cycles and probes health between them.
type Store interface {
	Connect(ctx context.Context) (*store.Conn, error)
	Probe(ctx context.Context, now time.Time) store.HealthStatus
}

// Deps are the collaborators a Monitor drives.
type Deps struct {
	Clock   clock.Clock
	Store   Store
	Sources *source.Harness
	Writer  *ingest.Writer
	Stats   *stats.Recorder
	Logger  log.FieldLogger
}

// Monitor owns the loop and its timers.
type Monitor struct {
	cfg     types.MonitorConfig
	clock   clock.Clock
	store   Store
	sources *source.Harness
	writer  *ingest.Writer
	stats   *stats.Recorder
	log     *log.Entry

	state    atomic.Int32
	shutdown *Shutdown

	lastCycle     time.Time
	lastHeartbeat time.Time
	lastHealth    time.Time
}

// New returns a Monitor. Nothing runs until RunForever or RunCycle.
func New(cfg types.MonitorConfig, d Deps) *Monitor {
	return &Monitor{
		cfg:      cfg,
		clock:    d.Clock,
		store:    d.Store,
		sources:  d.Sources,
		writer:   d.Writer,
		stats:    d.Stats,
		log:      logging.Component(d.Logger, "scheduler"),
		shutdown: NewShutdown(),
	}
}

// State returns the current cycle state. Safe to call from any goroutine.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(s State, fields log.Fields) {
	prev := State(m.state.Swap(int32(s)))
	m.log.WithFields(fields).WithFields(log.Fields{"from": prev, "to": s}).Debug("state transition")
}

// RunForever runs an initial cycle and then the timer loop until sh is
// triggered. On exit it writes a final stats snapshot. It returns nil on a
// requested shutdown; no error inside the loop ends it.
func (m *Monitor) RunForever(sh *Shutdown) error {
	m.shutdown = sh
	m.log.WithFields(log.Fields{
		"cycle_interval":        m.cfg.CycleInterval,
		"heartbeat_interval":    m.cfg.HeartbeatInterval,
		"health_check_interval": m.cfg.HealthCheckInterval,
		"sources":               m.sources.Names(),
	}).Info("monitor started")

	start := m.clock.Now()
	m.lastHeartbeat, m.lastHealth = start, start

	m.guard(func() {
		m.lastCycle = m.clock.Now()
		m.cycle()
	})

	for !sh.Requested() {
		select {
		case <-sh.Done():
		case <-m.clock.After(m.cfg.TickInterval):
		}
		if sh.Requested() {
			break
		}
		m.guard(m.tick)
	}

	m.finish()
	return nil
}

// tick fires every timer whose interval has elapsed, once, no matter how
// many intervals were missed.
func (m *Monitor) tick() {
	now := m.clock.Now()

	if now.Sub(m.lastHeartbeat) >= m.cfg.HeartbeatInterval {
		m.heartbeat()
		m.lastHeartbeat = now
	}
	if now.Sub(m.lastHealth) >= m.cfg.HealthCheckInterval {
		m.healthCheck()
		m.lastHealth = now
	}
	if now.Sub(m.lastCycle) >= m.cfg.CycleInterval && !m.shutdown.Requested() {
		m.lastCycle = now
		m.cycle()
	}
}

// cycle runs one cycle and applies the failure cooldown when the store
// could not be reached.
func (m *Monitor) cycle() {
	if sum := m.RunCycle(); sum.Outcome == types.OutcomeFailed {
		m.log.WithField("cooldown", m.cfg.FailureCooldown).Warn("cycle failed, cooling down")
		m.pause(m.cfg.FailureCooldown)
	}
}

// guard runs fn and turns a panic into a logged error followed by the loop
// error cooldown.
func (m *Monitor) guard(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			m.setState(StateIdle, nil)
			err := fmt.Errorf("unexpected error in main loop: %v", p)
			m.log.WithError(err).WithField("stack", string(debug.Stack())).Error("loop error, cooling down")
			m.stats.SetLastError(err)
			m.pause(m.cfg.LoopErrorCooldown)
		}
	}()
	fn()
}

// pause waits for d or until shutdown is requested.
func (m *Monitor) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-m.shutdown.Done():
	case <-m.clock.After(d):
	}
}

// RunCycle performs one cycle: connect, poll every source in order, write
// the combined records in batches, and report. A stop request is honoured
// between sources, after fetching and between batches; the cycle is then
// recorded as interrupted with everything already committed accounted for.
func (m *Monitor) RunCycle() types.CycleSummary {
	ctx := context.Background()
	started := m.clock.Now()
	sum := types.CycleSummary{
		ID:        uuid.NewString(),
		Number:    m.stats.BeginCycle(),
		StartedAt: started,
		Outcome:   types.OutcomeSucceeded,
	}
	entry := m.log.WithFields(log.Fields{"cycle": sum.Number, "cycle_id": sum.ID})
	entry.Info("cycle starting")

	var cause error
	defer func() {
		p := recover()
		if p != nil {
			sum.Outcome, cause = types.OutcomeFailed, fmt.Errorf("cycle %d aborted: %v", sum.Number, p)
		}

		m.setState(StateReporting, log.Fields{"cycle": sum.Number})
		sum.DurationSeconds = m.clock.Since(started).Seconds()
		m.stats.Record(sum, cause)
		m.stats.Snapshot()
		m.setState(StateIdle, log.Fields{"cycle": sum.Number})

		entry.WithFields(log.Fields{
			"outcome":        sum.Outcome,
			"fetched":        sum.Fetched,
			"inserted":       sum.Inserted,
			"duplicates":     sum.Duplicates,
			"failed_batches": sum.FailedBatches,
			"failed_sources": len(sum.FailedSources),
			"duration":       time.Duration(sum.DurationSeconds * float64(time.Second)),
		}).Info("cycle finished")

		if p != nil {
			panic(p)
		}
	}()

	m.setState(StateConnecting, log.Fields{"cycle": sum.Number})
	conn, err := m.store.Connect(ctx)
	if err != nil {
		entry.WithError(err).Error("store unreachable, cycle skipped")
		sum.Outcome, cause = types.OutcomeFailed, err
		return sum
	}
	defer conn.Close()

	if m.stopping(&sum) {
		return sum
	}

	m.setState(StateFetching, log.Fields{"cycle": sum.Number})
	window := source.WindowEndingAt(started, m.cfg.FetchWindow)
	var records []types.CandidateRecord
	_, interrupted := m.sources.Run(ctx, window, func(r source.Result) {
		m.stats.RecordSource(r.Name, len(r.Records), r.At)
		if r.Err != nil {
			sum.FailedSources = append(sum.FailedSources, r.Name)
			m.stats.SetLastError(r.Err)
			return
		}
		records = append(records, r.Records...)
	}, m.shutdown.Requested)
	sum.Fetched = len(records)

	if interrupted || m.stopping(&sum) {
		sum.Outcome = types.OutcomeInterrupted
		return sum
	}

	m.setState(StateInserting, log.Fields{"cycle": sum.Number, "records": len(records)})
	written := m.writer.WriteAll(ctx, conn, records, m.shutdown.Requested)
	sum.Inserted = written.Inserted
	sum.Duplicates = written.Duplicates
	sum.FailedBatches = written.FailedBatches
	if written.FailedBatches > 0 {
		m.stats.SetLastError(fmt.Errorf("cycle %d: %d of %d batches failed", sum.Number, written.FailedBatches, written.Batches))
	}
	if written.Interrupted {
		sum.Outcome = types.OutcomeInterrupted
		return sum
	}

	if rows, categories, err := conn.Totals(ctx); err == nil {
		entry.WithFields(log.Fields{"store_rows": rows, "categories": categories}).Info("store totals")
	} else {
		entry.WithError(err).Warn("store totals unavailable")
	}
	return sum
}

// stopping marks the cycle interrupted when shutdown has been requested.
func (m *Monitor) stopping(sum *types.CycleSummary) bool {
	if m.shutdown.Requested() {
		sum.Outcome = types.OutcomeInterrupted
		return true
	}
	return false
}

func (m *Monitor) heartbeat() {
	sample := m.stats.SampleResources()
	snap := m.stats.Current()
	m.log.WithFields(log.Fields{
		"uptime":        m.stats.Uptime().Truncate(time.Second),
		"cycles":        snap.TotalCycles,
		"records_added": snap.TotalRecordsAdded,
		"memory_mb":     fmt.Sprintf("%.1f", sample.MemoryMB),
		"cpu_percent":   fmt.Sprintf("%.1f", sample.CPUPercent),
	}).Info("heartbeat")
}

func (m *Monitor) healthCheck() {
	status := m.store.Probe(context.Background(), m.clock.Now())
	m.stats.SetStoreHealth(status)

	entry := m.log.WithFields(log.Fields{
		"health":  status.Health,
		"latency": status.Latency,
	})
	switch {
	case status.Healthy():
		entry.WithFields(log.Fields{"rows": status.TotalRows, "recent_rows": status.RecentRows}).Info("health check passed")
	default:
		entry.WithError(status.Err).Error("health check failed")
	}
}

func (m *Monitor) finish() {
	m.stats.SampleResources()
	snap := m.stats.Current()
	m.log.WithFields(log.Fields{
		"reason":        m.shutdown.Reason(),
		"cycles":        snap.TotalCycles,
		"successful":    snap.SuccessfulCycles,
		"failed":        snap.FailedCycles,
		"records_added": snap.TotalRecordsAdded,
		"uptime":        m.stats.Uptime().Truncate(time.Second),
	}).Info("shutting down")
	m.stats.Snapshot()
	m.log.Info("shutdown complete")
}
