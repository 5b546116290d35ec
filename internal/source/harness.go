// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/metrics"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Result is the outcome of polling one adapter.
type Result struct {
	Name     string
	Records  []types.CandidateRecord
	Err      error
	At       time.Time
	Duration time.Duration
}

// Harness polls adapters one after another. A failing or panicking adapter
// contributes no records and does not stop the others.
type Harness struct {
	adapters []Adapter
	timeout  time.Duration
	clock    clock.PassiveClock
	metrics  *metrics.Metrics
	log      *log.Entry
}

// NewHarness returns a Harness bounding each fetch by timeout.
func NewHarness(adapters []Adapter, timeout time.Duration, clk clock.PassiveClock, mt *metrics.Metrics, logger log.FieldLogger) *Harness {
	return &Harness{
		adapters: adapters,
		timeout:  timeout,
		clock:    clk,
		metrics:  mt,
		log:      logging.Component(logger, "sources"),
	}
}

// Names lists the adapters in polling order.
func (h *Harness) Names() []string {
	names := make([]string, len(h.adapters))
	for i, a := range h.adapters {
		names[i] = a.Name()
	}
	return names
}

// Run polls every adapter in order, passing each result to each as soon as
// it is known. Before every adapter after the first, stop is consulted;
// when it returns true the remaining adapters are skipped and interrupted
// is true.
func (h *Harness) Run(ctx context.Context, w Window, each func(Result), stop func() bool) (results []Result, interrupted bool) {
	for i, a := range h.adapters {
		if i > 0 && stop != nil && stop() {
			h.log.WithField("skipped", len(h.adapters)-i).Info("polling stopped between sources")
			return results, true
		}

		res := h.poll(ctx, a, w)
		entry := h.log.WithFields(log.Fields{"source": res.Name, "duration": res.Duration})
		if res.Err != nil {
			entry.WithError(res.Err).Error("source failed")
		} else {
			entry.WithField("records", len(res.Records)).Info("source polled")
		}
		h.metrics.RecordSource(res.Name, len(res.Records), res.Err)

		results = append(results, res)
		if each != nil {
			each(res)
		}
	}
	return results, false
}

func (h *Harness) poll(ctx context.Context, a Adapter, w Window) (res Result) {
	res.Name = a.Name()
	start := h.clock.Now()
	wallStart := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res.Records = nil
			res.Err = &FetchError{Source: res.Name, Err: fmt.Errorf("panic: %v", p)}
		}
		res.At = start
		res.Duration = time.Since(wallStart)
	}()

	callCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	records, err := a.Fetch(callCtx, w)
	if err != nil {
		return Result{Name: res.Name, Err: &FetchError{Source: res.Name, Err: err}}
	}
	res.Records = records
	return res
}
