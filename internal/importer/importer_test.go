// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/pdiddy/ingest-monitor/internal/ingest"
	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/internal/store/storetest"
	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

func setup(t *testing.T) (*store.Conn, *ingest.Writer) {
	t.Helper()
	conn := storetest.Open(t, storetest.Config(t))
	logger, _ := test.NewNullLogger()
	return conn, ingest.NewWriter(50, logger)
}

func newGen(seed int64) *synth.Generator {
	return synth.New(seed, clocktesting.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRun_ImportsLimitedCatalog(t *testing.T) {
	conn, w := setup(t)
	var out bytes.Buffer

	rep := Run(context.Background(), conn, w, DefaultCatalog(), newGen(7), &out, Options{LimitGenes: 10})

	// 10 genes x (4 + 6 + 4 + 6 + 5) guides.
	require.Len(t, rep.Libraries, 5)
	assert.Equal(t, 250, rep.Inserted+rep.Duplicates)
	assert.Equal(t, int64(rep.Inserted), rep.StoreRows)
	assert.Greater(t, rep.Inserted, 240)
	assert.False(t, rep.Interrupted)
	assert.Zero(t, rep.FailedBatches)
	assert.Equal(t, 40, rep.Libraries[0].Generated)
	assert.Contains(t, out.String(), "importing: Brunello (Broad Institute)")
	assert.Contains(t, out.String(), "Import complete")
}

func TestRun_SecondRunIsAllDuplicates(t *testing.T) {
	conn, w := setup(t)
	cat := Catalog{Libraries: DefaultCatalog().Libraries[:1]}

	first := Run(context.Background(), conn, w, cat, newGen(11), &bytes.Buffer{}, Options{LimitGenes: 5})
	second := Run(context.Background(), conn, w, cat, newGen(11), &bytes.Buffer{}, Options{LimitGenes: 5})

	assert.Equal(t, 20, first.Inserted)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 20, second.Duplicates)
	assert.Equal(t, int64(20), storetest.CountRows(t, conn))
}

func TestRun_RecordsCarryLibraryProfile(t *testing.T) {
	conn, w := setup(t)
	lib := DefaultCatalog().Libraries[3] // Brie
	lib.SourceTag = "BRIE"

	Run(context.Background(), conn, w, Catalog{Libraries: []Library{lib}}, newGen(3), &bytes.Buffer{}, Options{LimitGenes: 4})

	rows, err := conn.DB.Query("SELECT efficiency, validation_status, source_tag, title, reference_date FROM " + conn.Table)
	require.NoError(t, err)
	defer rows.Close()

	n := 0
	for rows.Next() {
		var eff float64
		var validation, tag, title, date string
		require.NoError(t, rows.Scan(&eff, &validation, &tag, &title, &date))
		assert.GreaterOrEqual(t, eff, 87.0)
		assert.LessOrEqual(t, eff, 98.0)
		assert.Equal(t, string(types.ValidationValidated), validation)
		assert.Equal(t, "BRIE", tag)
		assert.Equal(t, lib.Paper, title)
		assert.Contains(t, date, "2019-")
		n++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 24, n)
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	conn, w := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	rep := Run(ctx, conn, w, DefaultCatalog(), newGen(1), &out, Options{LimitGenes: 5})

	assert.True(t, rep.Interrupted)
	assert.Empty(t, rep.Libraries)
	assert.Equal(t, int64(0), storetest.CountRows(t, conn))
	assert.Contains(t, out.String(), "Import interrupted")
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`libraries:
  - key: MINI
    name: Mini Library
    genes: 100
    guides_per_gene: 3
    validation: published
    year: 2021
    paper: A small screen
    source_tag: MINI
    gc_weight: 2
    efficiency_min: 70
    efficiency_max: 80
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Libraries, 1)
	lib := cat.Libraries[0]
	assert.Equal(t, "MINI", lib.Key)
	assert.Equal(t, 3, lib.GuidesPerGene)
	assert.Equal(t, types.ValidationPublished, lib.Validation)
	assert.Equal(t, 80.0, lib.EfficiencyMax)
	assert.Equal(t, synth.Range{Lo: 70, Hi: 80}, lib.profile().Efficiency)
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading catalog")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("libraries: [\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.ErrorContains(t, err, "parsing catalog")
}

func TestCatalogValidate(t *testing.T) {
	assert.NoError(t, DefaultCatalog().Validate())
	assert.ErrorContains(t, Catalog{}.Validate(), "no libraries")

	cat := Catalog{Libraries: []Library{
		{Key: "A", Genes: 1, GuidesPerGene: 1},
		{Key: "A", Genes: 1, GuidesPerGene: 1},
		{Key: "B", Genes: 0, GuidesPerGene: 1},
		{Key: "C", Genes: 1, GuidesPerGene: 1, EfficiencyMin: 90, EfficiencyMax: 80},
		{Key: "D", Genes: 1, GuidesPerGene: 1, Validation: "rumoured"},
	}}
	err := cat.Validate()
	require.Error(t, err)
	for _, want := range []string{"duplicate key", "must be positive", "efficiency_max", "unknown validation"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLibraryTagDefaultsToName(t *testing.T) {
	assert.Equal(t, "Brunello (Broad Institute)", DefaultCatalog().Libraries[0].tag())
}
