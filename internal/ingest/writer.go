// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest writes candidate records into the store in independently
// committed batches, letting the store's unique key on content_hash decide
// what is a duplicate.
package ingest

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/metrics"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// BatchError reports a batch that failed and was rolled back.
type BatchError struct {
	Index int
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d records): %v", e.Index, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// BatchResult is the accounting for one batch.
type BatchResult struct {
	Index      int
	Size       int
	Inserted   int
	Duplicates int
	Err        error
}

// Summary totals a WriteAll call.
type Summary struct {
	Records       int
	Batches       int
	Inserted      int
	Duplicates    int
	FailedBatches int
	Skipped       int
	Interrupted   bool
}

// Total returns the number of records that reached the store, inserted or not.
func (s Summary) Total() int {
	return s.Inserted + s.Duplicates
}

// Checkpoint is consulted between batches; returning true stops the write.
type Checkpoint func() bool

// Writer performs insert-or-skip writes in fixed-size batches.
type Writer struct {
	batchSize int
	metrics   *metrics.Metrics
	observer  func(BatchResult)
	log       *log.Entry
}

// Option customises a Writer.
type Option func(*Writer)

// WithMetrics counts batches and records.
func WithMetrics(m *metrics.Metrics) Option { return func(w *Writer) { w.metrics = m } }

// WithObserver is called after every batch, committed or failed.
func WithObserver(fn func(BatchResult)) Option { return func(w *Writer) { w.observer = fn } }

// NewWriter returns a Writer splitting records into batches of batchSize.
func NewWriter(batchSize int, logger log.FieldLogger, opts ...Option) *Writer {
	if batchSize <= 0 {
		batchSize = types.DefaultConfig().Store.BatchSize
	}
	w := &Writer{
		batchSize: batchSize,
		log:       logging.Component(logger, "writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BatchSize returns the configured batch size.
func (w *Writer) BatchSize() int { return w.batchSize }

// InsertBatch writes records in one transaction and commits it. Records whose
// content hash is already stored are skipped by the store. On failure the
// transaction is rolled back and the whole batch counts as duplicates.
func (w *Writer) InsertBatch(ctx context.Context, conn *store.Conn, records []types.CandidateRecord) (inserted, duplicates int, err error) {
	return w.insert(ctx, conn, 0, records)
}

func (w *Writer) insert(ctx context.Context, conn *store.Conn, index int, records []types.CandidateRecord) (int, int, error) {
	fail := func(err error) (int, int, error) {
		return 0, len(records), &BatchError{Index: index, Size: len(records), Err: err}
	}

	callCtx, cancel := conn.CallContext(ctx)
	defer cancel()

	tx, err := conn.DB.BeginTx(callCtx, nil)
	if err != nil {
		return fail(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(callCtx, conn.Dialect.InsertOrSkip(conn.Table))
	if err != nil {
		return fail(fmt.Errorf("preparing insert: %w", err))
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.ExecContext(callCtx,
			ContentHash(r.Payload),
			r.Payload,
			r.Category,
			r.Efficiency,
			r.GCContent,
			r.OffTargetScore,
			string(r.Validation),
			r.SourceTag,
			nullable(r.Title),
			conn.Dialect.Date(r.ReferenceDate),
			nullable(r.ContextLabel),
		)
		if err != nil {
			return fail(fmt.Errorf("inserting %s: %w", r.Payload, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fail(fmt.Errorf("reading rows affected: %w", err))
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("committing: %w", err))
	}
	return inserted, len(records) - inserted, nil
}

// WriteAll splits records into batches and commits each one on its own.
// A failed batch is logged, counted as fully duplicated, and the next batch
// proceeds. When checkpoint returns true before a batch, the remaining
// records are skipped and the summary is marked interrupted.
func (w *Writer) WriteAll(ctx context.Context, conn *store.Conn, records []types.CandidateRecord, checkpoint Checkpoint) Summary {
	sum := Summary{Records: len(records)}

	for start, index := 0, 1; start < len(records); start, index = start+w.batchSize, index+1 {
		if index > 1 && checkpoint != nil && checkpoint() {
			sum.Interrupted = true
			sum.Skipped = len(records) - start
			w.log.WithField("skipped", sum.Skipped).Info("write stopped between batches")
			break
		}

		end := min(start+w.batchSize, len(records))
		batch := records[start:end]

		inserted, duplicates, err := w.insert(ctx, conn, index, batch)
		sum.Batches++
		sum.Inserted += inserted
		sum.Duplicates += duplicates

		entry := w.log.WithFields(log.Fields{"batch": index, "size": len(batch)})
		if err != nil {
			sum.FailedBatches++
			entry.WithError(err).Warn("batch failed, counted as not inserted")
		} else {
			entry.WithFields(log.Fields{"inserted": inserted, "duplicates": duplicates}).Debug("batch committed")
		}

		w.metrics.RecordBatch(inserted, duplicates, err != nil)
		if w.observer != nil {
			w.observer(BatchResult{Index: index, Size: len(batch), Inserted: inserted, Duplicates: duplicates, Err: err})
		}
	}
	return sum
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
