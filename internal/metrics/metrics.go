// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes the monitor's counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "ingest_monitor"

// Metrics holds every collector on a private registry, so tests can create
// as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	recordsInserted  prometheus.Counter
	recordsDuplicate prometheus.Counter
	batches          *prometheus.CounterVec
	sourceRecords    *prometheus.CounterVec
	sourceErrors     *prometheus.CounterVec
	connectAttempts  *prometheus.CounterVec
	storeHealthy     prometheus.Gauge
	residentMemoryMB prometheus.Gauge
	cpuPercent       prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Collection cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a collection cycle.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		recordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_inserted_total",
			Help:      "Records newly written to the store.",
		}),
		recordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_duplicate_total",
			Help:      "Records skipped as duplicates or lost with a failed batch.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Committed and failed insert batches.",
		}, []string{"outcome"}),
		sourceRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_records_total",
			Help:      "Candidate records returned per source.",
		}, []string{"source"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Failed fetches per source.",
		}, []string{"source"}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Store connection attempts by result.",
		}, []string{"result"}),
		storeHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_healthy",
			Help:      "1 when the last health check passed, 0 otherwise.",
		}),
		residentMemoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_memory_mb",
			Help:      "Resident memory at the last resource sample.",
		}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_percent",
			Help:      "Process CPU usage at the last resource sample.",
		}),
	}

	m.Registry.MustRegister(
		m.cycles, m.cycleDuration, m.recordsInserted, m.recordsDuplicate,
		m.batches, m.sourceRecords, m.sourceErrors, m.connectAttempts,
		m.storeHealthy, m.residentMemoryMB, m.cpuPercent,
	)
	return m
}

// The recording methods are nil-safe so components can run without metrics.

func (m *Metrics) RecordCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordBatch(inserted, duplicates int, failed bool) {
	if m == nil {
		return
	}
	outcome := "committed"
	if failed {
		outcome = "failed"
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.recordsInserted.Add(float64(inserted))
	m.recordsDuplicate.Add(float64(duplicates))
}

func (m *Metrics) RecordSource(name string, records int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sourceErrors.WithLabelValues(name).Inc()
		return
	}
	m.sourceRecords.WithLabelValues(name).Add(float64(records))
}

func (m *Metrics) RecordConnectAttempt(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SetStoreHealthy(healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.storeHealthy.Set(v)
}

func (m *Metrics) SetResources(memoryMB, cpuPercent float64) {
	if m == nil {
		return
	}
	m.residentMemoryMB.Set(memoryMB)
	m.cpuPercent.Set(cpuPercent)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger log.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
