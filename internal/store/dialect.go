// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// recordColumns lists the writable columns of the persisted-record table in
// insert order. created_at and updated_at are set by the server.
var recordColumns = []string{
	"content_hash",
	"payload",
	"category_label",
	"efficiency",
	"gc_content",
	"off_target_score",
	"validation_status",
	"source_tag",
	"title",
	"reference_date",
	"context_label",
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidTableName reports whether name is safe to splice into SQL.
func ValidTableName(name string) bool {
	return tableNameRe.MatchString(name)
}

// Dialect holds the SQL that differs between the supported drivers.
type Dialect struct {
	Driver string
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case types.DriverSQLite, types.DriverPostgres, types.DriverMySQL:
		return Dialect{Driver: driver}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// Placeholder returns the bind marker for the 1-based parameter i.
func (d Dialect) Placeholder(i int) string {
	if d.Driver == types.DriverPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// InsertOrSkip returns the statement that inserts one record and silently
// does nothing when content_hash already exists.
func (d Dialect) InsertOrSkip(table string) string {
	marks := make([]string, len(recordColumns))
	for i := range recordColumns {
		marks[i] = d.Placeholder(i + 1)
	}
	cols := strings.Join(recordColumns, ", ") + ", created_at, updated_at"
	vals := strings.Join(marks, ", ") + ", CURRENT_TIMESTAMP, CURRENT_TIMESTAMP"

	switch d.Driver {
	case types.DriverSQLite:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, cols, vals)
	case types.DriverMySQL:
		return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, cols, vals)
	default:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (content_hash) DO NOTHING", table, cols, vals)
	}
}

// TableExists returns a query counting tables named by its single parameter.
func (d Dialect) TableExists() string {
	switch d.Driver {
	case types.DriverSQLite:
		return `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	case types.DriverMySQL:
		return `SELECT count(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	default:
		return `SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	}
}

// RecentRows returns a query counting rows created at or after its single parameter.
func (d Dialect) RecentRows(table string) string {
	return fmt.Sprintf("SELECT count(*) FROM %s WHERE created_at >= %s", table, d.Placeholder(1))
}

// Timestamp converts t into the value compared against created_at.
// SQLite stores CURRENT_TIMESTAMP as "YYYY-MM-DD HH:MM:SS" text in UTC.
func (d Dialect) Timestamp(t time.Time) any {
	if d.Driver == types.DriverSQLite {
		return t.UTC().Format("2006-01-02 15:04:05")
	}
	return t.UTC()
}

// Date converts an optional date into a bind value; the zero time becomes NULL.
func (d Dialect) Date(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

// CreateTable returns the DDL for the persisted-record table.
func (d Dialect) CreateTable(table string) []string {
	switch d.Driver {
	case types.DriverSQLite:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				content_hash CHAR(32) NOT NULL UNIQUE,
				payload TEXT NOT NULL,
				category_label TEXT NOT NULL,
				efficiency REAL,
				gc_content REAL,
				off_target_score REAL,
				validation_status TEXT NOT NULL,
				source_tag TEXT NOT NULL,
				title TEXT,
				reference_date DATE,
				context_label TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at)`, table, table),
		}
	case types.DriverMySQL:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				content_hash CHAR(32) NOT NULL,
				payload VARCHAR(255) NOT NULL,
				category_label VARCHAR(64) NOT NULL,
				efficiency DECIMAL(6,2),
				gc_content DECIMAL(6,2),
				off_target_score DECIMAL(6,2),
				validation_status VARCHAR(32) NOT NULL,
				source_tag VARCHAR(64) NOT NULL,
				title VARCHAR(512) NULL,
				reference_date DATE NULL,
				context_label VARCHAR(64) NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uq_%s_content_hash (content_hash),
				KEY idx_%s_created_at (created_at)
			)`, table, table, table),
		}
	default:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				content_hash CHAR(32) NOT NULL UNIQUE,
				payload TEXT NOT NULL,
				category_label TEXT NOT NULL,
				efficiency NUMERIC(6,2),
				gc_content NUMERIC(6,2),
				off_target_score NUMERIC(6,2),
				validation_status TEXT NOT NULL,
				source_tag TEXT NOT NULL,
				title TEXT,
				reference_date DATE,
				context_label TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at)`, table, table),
		}
	}
}
