// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect selects the SQL flavor of a SQLStore.
type Dialect string

// Supported dialects.
const (
	DuckDB   Dialect = "duckdb"
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect validates a dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case DuckDB, SQLite, Postgres:
		return d, nil
	case "postgresql":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", name)
}

// DriverName returns the database/sql driver name registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d Dialect) occurrenceSchema(table string) []string {
	switch d {
	case SQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				site_id INTEGER NOT NULL DEFAULT 0,
				alert_id INTEGER NOT NULL,
				created_on REAL NOT NULL,
				client_ip TEXT,
				severity INTEGER NOT NULL DEFAULT 0,
				object TEXT,
				event_type TEXT,
				user_agent TEXT,
				user_roles TEXT,
				username TEXT,
				user_id INTEGER,
				session_id TEXT,
				post_status TEXT,
				post_type TEXT,
				post_id INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_created_on ON ` + table + `(created_on)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_alert_id ON ` + table + `(alert_id)`,
		}
	case Postgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id BIGSERIAL PRIMARY KEY,
				site_id BIGINT NOT NULL DEFAULT 0,
				alert_id INTEGER NOT NULL,
				created_on DOUBLE PRECISION NOT NULL,
				client_ip TEXT,
				severity INTEGER NOT NULL DEFAULT 0,
				object TEXT,
				event_type TEXT,
				user_agent TEXT,
				user_roles TEXT,
				username TEXT,
				user_id BIGINT,
				session_id TEXT,
				post_status TEXT,
				post_type TEXT,
				post_id BIGINT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_created_on ON ` + table + `(created_on)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_alert_id ON ` + table + `(alert_id)`,
		}
	default:
		return []string{
			`CREATE SEQUENCE IF NOT EXISTS ` + table + `_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id BIGINT PRIMARY KEY DEFAULT nextval('` + table + `_id_seq'),
				site_id BIGINT NOT NULL DEFAULT 0,
				alert_id INTEGER NOT NULL,
				created_on DOUBLE NOT NULL,
				client_ip VARCHAR,
				severity INTEGER NOT NULL DEFAULT 0,
				object VARCHAR,
				event_type VARCHAR,
				user_agent VARCHAR,
				user_roles VARCHAR,
				username VARCHAR,
				user_id BIGINT,
				session_id VARCHAR,
				post_status VARCHAR,
				post_type VARCHAR,
				post_id BIGINT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_` + table + `_created_on ON ` + table + `(created_on)`,
		}
	}
}

func (d Dialect) metadataSchema(table string) []string {
	textType := "TEXT"
	idType := "BIGINT"
	switch d {
	case DuckDB:
		textType = "VARCHAR"
	case SQLite:
		idType = "INTEGER"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			occurrence_id ` + idType + ` NOT NULL,
			name ` + textType + ` NOT NULL,
			value ` + textType + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + table + `_occurrence_id ON ` + table + `(occurrence_id)`,
	}
}

func (d Dialect) tableExistsQuery() string {
	switch d {
	case SQLite:
		return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	case Postgres:
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	default:
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`
	}
}

// missingTable reports whether err is the dialect's "table does not exist"
// signal.
func (d Dialect) missingTable(err error) bool {
	if err == nil {
		return false
	}
	switch d {
	case Postgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "42P01"
	case SQLite:
		return strings.Contains(err.Error(), "no such table")
	default:
		msg := err.Error()
		return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
	}
}

// unreachable reports whether err means the database could not be reached.
func (d Dialect) unreachable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if d == Postgres {
		var pqErr *pq.Error
		// Class 08: connection exception. Class 57: operator intervention.
		if errors.As(err, &pqErr) && (pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57") {
			return true
		}
	}
	return false
}
