// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testWindow() Window {
	return WindowEndingAt(testNow, 7*24*time.Hour)
}

func newTestAdapter(t *testing.T, cfg types.SourceConfig) Adapter {
	t.Helper()
	logger, _ := test.NewNullLogger()
	gen := synth.New(1, clocktesting.NewFakeClock(testNow))
	cfg.RatePerSecond = 1000
	a, err := New(cfg, types.HTTPConfig{UserAgent: "ingest-monitor-test"}, http.DefaultClient, gen, logger)
	require.NoError(t, err)
	return a
}

func TestWindow_Days(t *testing.T) {
	assert.Equal(t, 7, testWindow().Days())
	assert.Equal(t, 1, WindowEndingAt(testNow, time.Hour).Days())
}

func TestPubMed_SizesByCount(t *testing.T) {
	counts := map[string]string{"CRISPR screen": "4", "CRISPR knockout": "100", "sgRNA design": "0"}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "7", q.Get("reldate"))
		assert.Equal(t, "ingest-monitor-test", r.Header.Get("User-Agent"))
		fmt.Fprintf(w, `<?xml version="1.0"?><eSearchResult><Count>%s</Count><RetMax>0</RetMax></eSearchResult>`, counts[q.Get("term")])
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{
		Name: "PUBMED", Kind: types.SourcePubMed, Tag: "PUBMED_NEW", BaseURL: ts.URL,
		Queries: []string{"CRISPR screen", "CRISPR knockout", "sgRNA design"},
	})
	records, err := a.Fetch(context.Background(), testWindow())
	require.NoError(t, err)

	// 4*3 for the first term, capped at 50 for the second, none for the third.
	assert.Len(t, records, 62)
	for _, r := range records {
		assert.Equal(t, "PUBMED_NEW", r.SourceTag)
	}
}

func TestPubMed_SkipsFailingTerm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<eSearchResult><Count>2</Count></eSearchResult>`)
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{
		Name: "PUBMED", Kind: types.SourcePubMed, BaseURL: ts.URL, Queries: []string{"bad", "good"},
	})
	records, err := a.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestPubMed_FailsWhenEveryTermFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `not xml`)
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{
		Name: "PUBMED", Kind: types.SourcePubMed, BaseURL: ts.URL, Queries: []string{"a", "b"},
	})
	_, err := a.Fetch(context.Background(), testWindow())
	assert.Error(t, err)
}

func TestGitHub_TokenAndCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("q"), "pushed:>2026-05-25")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 431, "items": []}`)
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{
		Name: "GITHUB", Kind: types.SourceGitHub, BaseURL: ts.URL, Token: "secret",
		Queries: []string{"CRISPR guide RNA"},
	})
	records, err := a.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Len(t, records, 100)
	assert.Equal(t, "GITHUB", records[0].SourceTag)
}

func TestGitHub_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{
		Name: "GITHUB", Kind: types.SourceGitHub, BaseURL: ts.URL, Queries: []string{"x"},
	})
	_, err := a.Fetch(context.Background(), testWindow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestBioRxiv_FiltersCRISPRTitles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/2026-05-25/2026-06-01/0"), r.URL.Path)
		fmt.Fprint(w, `{"collection": [
			{"title": "A crispr screen in yeast", "date": "2026-05-28", "doi": "10.1101/1"},
			{"title": "Protein folding dynamics", "date": "2026-05-29", "doi": "10.1101/2"}
		]}`)
	}))
	defer ts.Close()

	a := newTestAdapter(t, types.SourceConfig{Name: "BIORXIV", Kind: types.SourceBioRxiv, BaseURL: ts.URL})
	records, err := a.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	require.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, "A crispr screen in yeast", r.Title)
		assert.Equal(t, time.Date(2026, 5, 28, 0, 0, 0, 0, time.UTC), r.ReferenceDate)
	}
}

func TestCatalog_BoundsAndValidation(t *testing.T) {
	a := newTestAdapter(t, types.SourceConfig{
		Name: "BROAD", Kind: types.SourceCatalog, Tag: "BROAD_VALIDATED",
		MinRecords: 50, MaxRecords: 150, EfficiencyBoost: 5, ForceValidated: true,
	})
	for range 10 {
		records, err := a.Fetch(context.Background(), testWindow())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(records), 50)
		assert.LessOrEqual(t, len(records), 150)
		for _, r := range records {
			assert.Equal(t, types.ValidationValidated, r.Validation)
			assert.GreaterOrEqual(t, r.Efficiency, 85.0)
			assert.LessOrEqual(t, r.Efficiency, 98.0)
		}
	}
}

func TestNew_Rejects(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gen := synth.New(1, clocktesting.NewFakeClock(testNow))

	_, err := New(types.SourceConfig{Name: "X", Kind: "ftp"}, types.HTTPConfig{}, http.DefaultClient, gen, logger)
	assert.Error(t, err)

	_, err = New(types.SourceConfig{Name: "X", Kind: types.SourceCatalog, MinRecords: 5, MaxRecords: 1}, types.HTTPConfig{}, http.DefaultClient, gen, logger)
	assert.Error(t, err)
}

func TestBuild_SkipsDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gen := synth.New(1, clocktesting.NewFakeClock(testNow))
	cfgs := types.DefaultSources()
	cfgs[1].Enabled = false

	adapters, err := Build(cfgs, types.DefaultConfig().HTTP, gen, logger)
	require.NoError(t, err)
	require.Len(t, adapters, 4)
	assert.Equal(t, "PUBMED", adapters[0].Name())
	assert.Equal(t, "ADDGENE", adapters[1].Name())
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `<eSearchResult><Count>0</Count></eSearchResult>`)
	}))
	defer ts.Close()

	logger, _ := test.NewNullLogger()
	gen := synth.New(1, clocktesting.NewFakeClock(testNow))
	a, err := New(types.SourceConfig{
		Name: "PUBMED", Kind: types.SourcePubMed, BaseURL: ts.URL,
		Queries: []string{"a", "b", "c"}, RatePerSecond: 20,
	}, types.HTTPConfig{}, http.DefaultClient, gen, logger)
	require.NoError(t, err)

	start := time.Now()
	_, err = a.Fetch(context.Background(), testWindow())
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

var errUpstream = errors.New("upstream down")
