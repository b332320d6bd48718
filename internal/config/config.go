// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package config loads Auditrail configuration with Koanf v2.
//
// Sources are layered, later layers winning:
//  1. Defaults from defaultConfig
//  2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/auditrail/config.yaml)
//  3. Environment variables listed in envMappings
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
// Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Archive  ArchiveConfig  `koanf:"archive"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Sinks    SinksConfig    `koanf:"sinks"`
	Render   RenderConfig   `koanf:"render"`
	Server   ServerConfig   `koanf:"server"`
}

// LoggingConfig configures the zerolog logger.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig describes one occurrence store.
//
// Environment Variables (live store):
//   - DB_DRIVER: duckdb, sqlite, postgres (default: duckdb)
//   - DB_DSN: file path or connection string (default: /data/auditrail.duckdb)
//   - DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME
//   - DB_OCCURRENCE_TABLE, DB_METADATA_TABLE
//   - DB_CREATE_SCHEMA: create missing tables at startup (default: true)
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"dialect"`
	DSN    string `koanf:"dsn" validate:"required"`

	// MaxOpenConns of 0 means unlimited. DuckDB and SQLite files are
	// opened with a single writer regardless.
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`

	OccurrenceTable string `koanf:"occurrence_table" validate:"sqlident"`
	MetadataTable   string `koanf:"metadata_table" validate:"sqlident"`
	CreateSchema    bool   `koanf:"create_schema"`
}

// ArchiveConfig configures periodic archiving or pruning.
//
// Environment Variables:
//   - ARCHIVE_ENABLED: run the scheduler (default: false)
//   - ARCHIVE_MODE: archive or prune (default: archive)
//   - ARCHIVE_DB_DRIVER, ARCHIVE_DB_DSN: destination store (default: sqlite /data/auditrail-archive.db)
//   - ARCHIVE_RETENTION_DAYS: move occurrences older than this (default: 90)
//   - ARCHIVE_KEEP_COUNT: keep only this many most recent occurrences; overrides retention days
//   - ARCHIVE_BATCH_SIZE (default: 500)
//   - ARCHIVE_INTERVAL (default: 1h)
//   - ARCHIVE_BATCHES_PER_SECOND: pacing between batches, 0 disables (default: 2)
//   - ARCHIVE_RUN_ON_START (default: false)
//   - ARCHIVE_BREAKER_THRESHOLD, ARCHIVE_BREAKER_TIMEOUT
type ArchiveConfig struct {
	Enabled  bool           `koanf:"enabled"`
	Mode     string         `koanf:"mode" validate:"oneof=archive prune"`
	Database DatabaseConfig `koanf:"database"`

	RetentionDays int `koanf:"retention_days" validate:"gte=0"`
	KeepCount     int `koanf:"keep_count" validate:"gte=0"`
	BatchSize     int `koanf:"batch_size" validate:"gte=1,lte=10000"`

	Interval         time.Duration `koanf:"interval" validate:"gt=0"`
	BatchesPerSecond float64       `koanf:"batches_per_second" validate:"gte=0"`
	RunOnStart       bool          `koanf:"run_on_start"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
}

// AlertsConfig holds dispatcher state restored at startup.
//
// Environment Variables:
//   - ALERTS_DISABLED: comma-separated alert type codes to suppress
//   - SITE_ID: site id stamped on occurrences (default: 0)
type AlertsConfig struct {
	Disabled []int `koanf:"disabled"`
	SiteID   int64 `koanf:"site_id" validate:"gte=0"`
}

// SinksConfig selects the loggers registered with the dispatcher.
//
// Environment Variables:
//   - SINK_DATABASE (default: true)
//   - SINK_CONSOLE (default: false)
//   - SINK_FILE_ENABLED, SINK_FILE_PATH ("-" writes to stdout)
//   - SINK_NATS_ENABLED, SINK_NATS_URL, SINK_NATS_TOPIC
//   - SINK_NATS_MAX_RECONNECTS, SINK_NATS_RECONNECT_WAIT
type SinksConfig struct {
	Database bool           `koanf:"database"`
	Console  bool           `koanf:"console"`
	File     FileSinkConfig `koanf:"file"`
	NATS     NATSSinkConfig `koanf:"nats"`
}

// FileSinkConfig configures the JSON-lines file sink.
type FileSinkConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// NATSSinkConfig configures the JetStream publisher sink. It requires a
// binary built with -tags=nats.
type NATSSinkConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	Topic         string        `koanf:"topic" validate:"required"`
	MaxReconnects int           `koanf:"max_reconnects" validate:"gte=-1"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
}

// RenderConfig adjusts message rendering for the read API.
//
// Environment Variables:
//   - RENDER_MAX_META_VALUE_LENGTH: 0 disables truncation (default: 50)
//   - RENDER_DEFAULT_FORMAT: plain, rich, dashboard, email (default: rich)
type RenderConfig struct {
	MaxMetaValueLength int    `koanf:"max_meta_value_length" validate:"gte=0"`
	DefaultFormat      string `koanf:"default_format" validate:"oneof=plain rich dashboard email"`
}

// ServerConfig configures the HTTP read surface.
//
// Environment Variables:
//   - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8380), HTTP_TIMEOUT (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
//   - AUTH_MODE and friends, see AuthConfig
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	Auth AuthConfig `koanf:"auth"`
}

// AuthConfig protects the mutating admin endpoints. With mode none they
// are not mounted and the disabled set is config-only.
//
// Environment Variables:
//   - AUTH_MODE: none, basic, jwt (default: none)
//   - ADMIN_USERNAME, ADMIN_PASSWORD: the Basic auth account (password 8+ characters)
//   - JWT_SECRET: HS256 secret (32+ characters), JWT_TIMEOUT (default: 24h)
type AuthConfig struct {
	Mode       string        `koanf:"mode" validate:"oneof=none basic jwt"`
	Username   string        `koanf:"username"`
	Password   string        `koanf:"password"`
	JWTSecret  string        `koanf:"jwt_secret"`
	JWTTimeout time.Duration `koanf:"jwt_timeout" validate:"gte=0"`
}
