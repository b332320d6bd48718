// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/auditrail/config.yaml",
	"/etc/auditrail/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			DSN:             "/data/auditrail.duckdb",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			OccurrenceTable: "occurrences",
			MetadataTable:   "metadata",
			CreateSchema:    true,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Mode:    "archive",
			Database: DatabaseConfig{
				Driver:          "sqlite",
				DSN:             "/data/auditrail-archive.db",
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				OccurrenceTable: "occurrences_archive",
				MetadataTable:   "metadata_archive",
				// Archive tables are created on first use.
				CreateSchema: false,
			},
			RetentionDays:           90,
			BatchSize:               500,
			Interval:                time.Hour,
			BatchesPerSecond:        2,
			BreakerFailureThreshold: 3,
		},
		Sinks: SinksConfig{
			Database: true,
			File:     FileSinkConfig{Path: "-"},
			NATS: NATSSinkConfig{
				URL:           "nats://127.0.0.1:4222",
				Topic:         "audit.events",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
		},
		Render: RenderConfig{
			MaxMetaValueLength: 50,
			DefaultFormat:      "rich",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8380,
			Timeout:         30 * time.Second,
			Environment:     "development",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			Auth: AuthConfig{
				Mode:       "none",
				JWTTimeout: 24 * time.Hour,
			},
		},
	}
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return load(FindConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// ARCHIVE_DB_DSN -> archive.database.dsn
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the file Load reads: $CONFIG_PATH if it exists,
// else the first existing DefaultConfigPaths entry, else "".
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"alerts.disabled",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"db_driver":            "database.driver",
	"db_dsn":               "database.dsn",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",
	"db_occurrence_table":  "database.occurrence_table",
	"db_metadata_table":    "database.metadata_table",
	"db_create_schema":     "database.create_schema",

	"archive_enabled":            "archive.enabled",
	"archive_mode":               "archive.mode",
	"archive_db_driver":          "archive.database.driver",
	"archive_db_dsn":             "archive.database.dsn",
	"archive_occurrence_table":   "archive.database.occurrence_table",
	"archive_metadata_table":     "archive.database.metadata_table",
	"archive_retention_days":     "archive.retention_days",
	"archive_keep_count":         "archive.keep_count",
	"archive_batch_size":         "archive.batch_size",
	"archive_interval":           "archive.interval",
	"archive_batches_per_second": "archive.batches_per_second",
	"archive_run_on_start":       "archive.run_on_start",
	"archive_breaker_threshold":  "archive.breaker_failure_threshold",
	"archive_breaker_timeout":    "archive.breaker_timeout",

	"alerts_disabled": "alerts.disabled",
	"site_id":         "alerts.site_id",

	"sink_database":            "sinks.database",
	"sink_console":             "sinks.console",
	"sink_file_enabled":        "sinks.file.enabled",
	"sink_file_path":           "sinks.file.path",
	"sink_nats_enabled":        "sinks.nats.enabled",
	"sink_nats_url":            "sinks.nats.url",
	"sink_nats_topic":          "sinks.nats.topic",
	"sink_nats_max_reconnects": "sinks.nats.max_reconnects",
	"sink_nats_reconnect_wait": "sinks.nats.reconnect_wait",

	"render_max_meta_value_length": "render.max_meta_value_length",
	"render_default_format":        "render.default_format",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"environment":         "server.environment",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	"auth_mode":      "server.auth.mode",
	"admin_username": "server.auth.username",
	"admin_password": "server.auth.password",
	"jwt_secret":     "server.auth.jwt_secret",
	"jwt_timeout":    "server.auth.jwt_timeout",
}

// envTransformFunc maps a known environment variable to its koanf path.
// Unknown variables map to "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// FileWatcher returns a koanf file provider for path to watch for changes.
// After a change the caller reloads with LoadFile.
func FileWatcher(path string) *file.File {
	return file.Provider(path)
}
