// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source defines the adapters that turn an upstream signal into
// candidate records, and the harness that polls them one after another.
package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Window is the look-back period a fetch covers.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowEndingAt returns the window of length d that ends at t.
func WindowEndingAt(t time.Time, d time.Duration) Window {
	return Window{From: t.Add(-d), To: t}
}

// Days returns the window length in whole days, at least 1.
func (w Window) Days() int {
	return max(int(w.To.Sub(w.From).Hours()/24), 1)
}

// Adapter produces candidate records for one upstream source. Fetch either
// returns records (possibly none) or fails; it never partially applies.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, w Window) ([]types.CandidateRecord, error)
}

// FetchError reports a source that failed during a cycle.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Default upstream endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubMedBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	gitHubBase  = "https://api.github.com/search/repositories"
	bioRxivBase = "https://api.biorxiv.org/details/biorxiv"
)

const defaultRatePerSecond = 2

// New builds the adapter selected by cfg.Kind.
func New(cfg types.SourceConfig, httpCfg types.HTTPConfig, client *http.Client, gen *synth.Generator, logger log.FieldLogger) (Adapter, error) {
	if cfg.Tag == "" {
		cfg.Tag = cfg.Name
	}
	entry := logger.WithField("source", cfg.Name)

	switch cfg.Kind {
	case types.SourceCatalog:
		if cfg.MaxRecords < cfg.MinRecords {
			return nil, fmt.Errorf("source %s: max_records %d below min_records %d", cfg.Name, cfg.MaxRecords, cfg.MinRecords)
		}
		return &Catalog{cfg: cfg, gen: gen, log: entry}, nil
	case types.SourcePubMed, types.SourceGitHub, types.SourceBioRxiv:
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", cfg.Name, cfg.Kind)
	}

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = defaultRatePerSecond
	}
	h := httpSource{
		name:      cfg.Name,
		tag:       cfg.Tag,
		token:     cfg.Token,
		userAgent: httpCfg.UserAgent,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		gen:       gen,
		log:       entry,
	}

	switch cfg.Kind {
	case types.SourcePubMed:
		h.baseURL = orDefault(cfg.BaseURL, pubMedBase)
		return &PubMed{httpSource: h, queries: cfg.Queries}, nil
	case types.SourceGitHub:
		h.baseURL = orDefault(cfg.BaseURL, gitHubBase)
		return &GitHub{httpSource: h, queries: cfg.Queries}, nil
	default:
		h.baseURL = orDefault(cfg.BaseURL, bioRxivBase)
		return &BioRxiv{httpSource: h}, nil
	}
}

// Build constructs an adapter for every enabled source.
func Build(cfgs []types.SourceConfig, httpCfg types.HTTPConfig, gen *synth.Generator, logger log.FieldLogger) ([]Adapter, error) {
	client := &http.Client{Timeout: httpCfg.Timeout}
	var out []Adapter
	for _, c := range cfgs {
		if !c.Enabled {
			continue
		}
		a, err := New(c, httpCfg, client, gen, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
