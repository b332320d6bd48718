// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "Driver"},
		{"table injection", func(c *Config) { c.Database.MetadataTable = "meta;--" }, "MetadataTable"},
		{"bad archive mode", func(c *Config) { c.Archive.Mode = "copy" }, "Mode"},
		{"zero batch size", func(c *Config) { c.Archive.BatchSize = 0 }, "BatchSize"},
		{"archive without retention", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.RetentionDays = 0
		}, "ARCHIVE_RETENTION_DAYS"},
		{"archive onto live store", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Database = c.Database
		}, "must differ"},
		{"prune may share the live store", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Mode = "prune"
			c.Archive.Database = c.Database
		}, ""},
		{"no sinks", func(c *Config) { c.Sinks.Database = false }, "at least one sink"},
		{"file sink without path", func(c *Config) {
			c.Sinks.File.Enabled = true
			c.Sinks.File.Path = ""
		}, "SINK_FILE_PATH"},
		{"nats bad scheme", func(c *Config) {
			c.Sinks.NATS.Enabled = true
			c.Sinks.NATS.URL = "http://broker:4222"
		}, "scheme"},
		{"nats ok", func(c *Config) { c.Sinks.NATS.Enabled = true }, ""},
		{"production wildcard cors", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"rate limit without window", func(c *Config) { c.Server.RateLimitWindow = 0 }, "RATE_LIMIT"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad auth mode", func(c *Config) { c.Server.Auth.Mode = "oidc" }, "Mode"},
		{"basic auth without username", func(c *Config) {
			c.Server.Auth.Mode = "basic"
			c.Server.Auth.Password = "securepassword"
		}, "ADMIN_USERNAME"},
		{"basic auth short password", func(c *Config) {
			c.Server.Auth.Mode = "basic"
			c.Server.Auth.Username = "admin"
			c.Server.Auth.Password = "short"
		}, "ADMIN_PASSWORD"},
		{"basic auth ok", func(c *Config) {
			c.Server.Auth.Mode = "basic"
			c.Server.Auth.Username = "admin"
			c.Server.Auth.Password = "securepassword"
		}, ""},
		{"jwt short secret", func(c *Config) {
			c.Server.Auth.Mode = "jwt"
			c.Server.Auth.JWTSecret = "short"
		}, "JWT_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard CORS in development should warn")
	}
	cfg.Server.CORSOrigins = []string{"https://audit.example"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origins should not warn")
	}
	if cfg.Addr() != "0.0.0.0:8380" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}
