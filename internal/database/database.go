// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package database opens occurrence stores over database/sql.
//
// The DuckDB, SQLite (modernc.org/sqlite, no cgo) and PostgreSQL (lib/pq)
// drivers are registered by this package:
//
//	db, err := database.Open(ctx, database.Config{
//	    Dialect: occurrence.SQLite,
//	    DSN:     "/data/archive.db",
//	    Tables:  occurrence.ArchiveTableNames(),
//	})
//	defer db.Close()
//	store := db.Store()
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

const pingTimeout = 5 * time.Second

// Config describes one store connection.
type Config struct {
	Dialect occurrence.Dialect
	DSN     string
	Tables  occurrence.TableNames

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// CreateSchema creates missing tables after connecting.
	CreateSchema bool
}

// DB is an open store connection.
type DB struct {
	conn  *sql.DB
	store *occurrence.SQLStore
	name  string
}

// Open connects, pings and wraps the connection in a SQLStore.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	conn, err := sql.Open(cfg.Dialect.DriverName(), connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Dialect, err)
	}
	configurePool(conn, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, occurrence.Unavailable("ping", err)
	}

	store, err := occurrence.NewSQLStore(conn, cfg.Dialect, cfg.Tables)
	if err != nil {
		closeQuietly(conn)
		return nil, err
	}

	if cfg.CreateSchema {
		if err := occurrence.EnsureSchema(ctx, store); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	db := &DB{conn: conn, store: store, name: redact(cfg.DSN)}
	logging.Info().
		Str("dialect", string(cfg.Dialect)).
		Str("dsn", db.name).
		Str("occurrence_table", cfg.Tables.Occurrences).
		Str("metadata_table", cfg.Tables.Metadata).
		Msg("Database opened")
	return db, nil
}

// connString adds driver defaults to file-backed DSNs.
func connString(cfg Config) string {
	if cfg.DSN == ":memory:" || strings.Contains(cfg.DSN, "?") {
		return cfg.DSN
	}
	switch cfg.Dialect {
	case occurrence.SQLite:
		// WAL lets API readers proceed while the archive engine writes.
		return cfg.DSN + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case occurrence.DuckDB:
		return cfg.DSN + "?access_mode=read_write"
	}
	return cfg.DSN
}

func configurePool(conn *sql.DB, cfg Config) {
	maxOpen := cfg.MaxOpenConns
	// Embedded engines get a single connection, which also keeps an
	// in-memory database alive and shared.
	if cfg.Dialect != occurrence.Postgres {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Store returns the occurrence store.
func (db *DB) Store() *occurrence.SQLStore { return db.store }

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB { return db.conn }

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.conn.PingContext(pingCtx)
}

// Close closes the pool.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	logging.Info().Str("dsn", db.name).Msg("Closing database")
	return db.conn.Close()
}

// redact strips credentials from URL-style DSNs for logging.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return dsn
}
