// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package importer bulk-loads published guide libraries into the record
// store in one pass, through the same batch writer the monitor uses.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/ingest-monitor/internal/ingest"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// progressEvery is the number of genes between progress lines. Records are
// written at the same cadence.
const progressEvery = 500

// LibraryReport is the outcome of importing one library.
type LibraryReport struct {
	Key           string
	Name          string
	Genes         int
	Generated     int
	Inserted      int
	Duplicates    int
	FailedBatches int
}

// Report totals an import run.
type Report struct {
	Libraries     []LibraryReport
	Inserted      int
	Duplicates    int
	FailedBatches int
	Interrupted   bool
	Duration      time.Duration
	StoreRows     int64
	Categories    int64
}

// Rate returns inserted records per second.
func (r Report) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Inserted) / r.Duration.Seconds()
}

// Options tune an import run.
type Options struct {
	// LimitGenes caps the genes per library; zero imports the full panel.
	LimitGenes int
}

// Run imports every library in cat, printing progress to out. Cancelling
// ctx stops the run between batches; everything committed so far stays.
func Run(ctx context.Context, conn *store.Conn, w *ingest.Writer, cat Catalog, gen *synth.Generator, out io.Writer, opts Options) Report {
	start := time.Now()
	var rep Report
	stop := func() bool { return ctx.Err() != nil }

	for _, lib := range cat.Libraries {
		if stop() {
			rep.Interrupted = true
			break
		}
		lr, interrupted := importLibrary(ctx, conn, w, lib, gen, out, opts, stop)
		rep.Libraries = append(rep.Libraries, lr)
		rep.Inserted += lr.Inserted
		rep.Duplicates += lr.Duplicates
		rep.FailedBatches += lr.FailedBatches
		if interrupted {
			rep.Interrupted = true
			break
		}
	}
	rep.Duration = time.Since(start)

	if rows, categories, err := conn.Totals(context.Background()); err == nil {
		rep.StoreRows, rep.Categories = rows, categories
	}
	printReport(out, rep)
	return rep
}

func importLibrary(ctx context.Context, conn *store.Conn, w *ingest.Writer, lib Library, gen *synth.Generator, out io.Writer, opts Options, stop ingest.Checkpoint) (LibraryReport, bool) {
	n := lib.Genes
	if opts.LimitGenes > 0 {
		n = min(n, opts.LimitGenes)
	}
	genes := gen.SampleGenes(synth.HumanGenes, n)
	lr := LibraryReport{Key: lib.Key, Name: lib.Name, Genes: len(genes)}

	fmt.Fprintf(out, "importing: %s (%d genes x %d guides)\n", lib.Name, len(genes), lib.GuidesPerGene)
	fmt.Fprintf(out, "  paper: %s\n", lib.Paper)

	profile, tag := lib.profile(), lib.tag()
	pending := make([]types.CandidateRecord, 0, progressEvery*lib.GuidesPerGene)

	flush := func() bool {
		sum := w.WriteAll(ctx, conn, pending, stop)
		lr.Inserted += sum.Inserted
		lr.Duplicates += sum.Duplicates
		lr.FailedBatches += sum.FailedBatches
		pending = pending[:0]
		return sum.Interrupted
	}

	for i, gene := range genes {
		for range lib.GuidesPerGene {
			pending = append(pending, gen.Guide(gene, tag, profile))
			lr.Generated++
		}
		if (i+1)%progressEvery == 0 {
			if flush() || stop() {
				fmt.Fprintf(out, "  interrupted after %d genes\n", i+1)
				return lr, true
			}
			fmt.Fprintf(out, "  progress: %d/%d genes (%.1f%%), %d added\n",
				i+1, len(genes), float64(i+1)/float64(len(genes))*100, lr.Inserted)
		}
	}
	if len(pending) > 0 && flush() {
		fmt.Fprintln(out, "  interrupted on the final batch")
		return lr, true
	}

	fmt.Fprintf(out, "done: %s, %d added, %d duplicates", lib.Name, lr.Inserted, lr.Duplicates)
	if lr.FailedBatches > 0 {
		fmt.Fprintf(out, ", %d failed batches", lr.FailedBatches)
	}
	fmt.Fprintln(out)
	return lr, false
}

func printReport(out io.Writer, rep Report) {
	status := "complete"
	if rep.Interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(out, "\nImport %s in %s: %d added, %d duplicates, %.1f records/s\n",
		status, rep.Duration.Truncate(time.Second), rep.Inserted, rep.Duplicates, rep.Rate())
	fmt.Fprintf(out, "Store now holds %d records across %d genes\n", rep.StoreRows, rep.Categories)
	for _, lr := range rep.Libraries {
		fmt.Fprintf(out, "  %-40s %d added\n", lr.Name, lr.Inserted)
	}
}
