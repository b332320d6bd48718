// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/auditrail/internal/validation"
)

// Credential minimums, matching the auth package.
const (
	minAdminPasswordLength = 8
	minJWTSecretLength     = 32
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateSinks(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateArchive() error {
	a := &c.Archive
	if !a.Enabled {
		return nil
	}
	if a.RetentionDays == 0 && a.KeepCount == 0 {
		return errors.New("ARCHIVE_RETENTION_DAYS or ARCHIVE_KEEP_COUNT must be set when archiving is enabled")
	}
	if a.Mode == "archive" && sameStore(c.Database, a.Database) {
		return errors.New("archive store must differ from the live store")
	}
	return nil
}

// sameStore reports whether two configs point at the same physical tables.
func sameStore(a, b DatabaseConfig) bool {
	return a.Driver == b.Driver && a.DSN == b.DSN &&
		a.OccurrenceTable == b.OccurrenceTable && a.MetadataTable == b.MetadataTable
}

func (c *Config) validateSinks() error {
	s := &c.Sinks
	if !s.Database && !s.Console && !s.File.Enabled && !s.NATS.Enabled {
		return errors.New("at least one sink must be enabled")
	}
	if s.File.Enabled && s.File.Path == "" {
		return errors.New("SINK_FILE_PATH is required when the file sink is enabled")
	}
	if s.NATS.Enabled {
		return validateNATSURL(s.NATS.URL)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("SINK_NATS_URL failed to parse: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("SINK_NATS_URL scheme must be nats, tls, ws or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("SINK_NATS_URL host is required")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return errors.New("CORS_ORIGINS must not contain * in production")
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitReqs == 0 || c.Server.RateLimitWindow == 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	return c.validateAuth()
}

func (c *Config) validateAuth() error {
	a := c.Server.Auth
	switch a.Mode {
	case "basic":
		if a.Username == "" {
			return errors.New("ADMIN_USERNAME is required when AUTH_MODE=basic")
		}
		if len(a.Password) < minAdminPasswordLength {
			return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", minAdminPasswordLength)
		}
	case "jwt":
		if len(a.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
		}
	}
	return nil
}

// HasAdminAuth reports whether the admin endpoints are mounted.
func (c *Config) HasAdminAuth() bool {
	return c.Server.Auth.Mode != "" && c.Server.Auth.Mode != "none"
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard CORS policy outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return !c.IsProduction() && c.hasWildcardCORS()
}

// IsProduction reports ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
