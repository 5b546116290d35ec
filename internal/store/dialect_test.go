// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ingest-monitor/internal/store"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

func TestDialect_InsertOrSkip(t *testing.T) {
	tests := []struct {
		driver string
		prefix string
		suffix string
		mark   string
	}{
		{types.DriverSQLite, "INSERT OR IGNORE INTO guides", ")", "?"},
		{types.DriverMySQL, "INSERT IGNORE INTO guides", ")", "?"},
		{types.DriverPostgres, "INSERT INTO guides", "ON CONFLICT (content_hash) DO NOTHING", "$11"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := store.DialectFor(tt.driver)
			require.NoError(t, err)

			q := d.InsertOrSkip("guides")
			assert.True(t, strings.HasPrefix(q, tt.prefix), q)
			assert.True(t, strings.HasSuffix(q, tt.suffix), q)
			assert.Contains(t, q, tt.mark)
			assert.Contains(t, q, "content_hash")
			assert.NotContains(t, q, "UPDATE")
		})
	}
}

func TestDialect_Unsupported(t *testing.T) {
	_, err := store.DialectFor("oracle")
	assert.Error(t, err)
}

func TestDialect_TimestampAndDate(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	sqlite, _ := store.DialectFor(types.DriverSQLite)
	assert.Equal(t, "2026-03-04 05:06:07", sqlite.Timestamp(ts))

	pg, _ := store.DialectFor(types.DriverPostgres)
	assert.Equal(t, ts, pg.Timestamp(ts))

	assert.Nil(t, pg.Date(time.Time{}))
	assert.Equal(t, "2026-03-04", pg.Date(ts))
}

func TestValidTableName(t *testing.T) {
	assert.True(t, store.ValidTableName("crispr_guides_mega"))
	assert.False(t, store.ValidTableName("1guides"))
	assert.False(t, store.ValidTableName("guides;--"))
	assert.False(t, store.ValidTableName(""))
}
