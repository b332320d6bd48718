// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package alerts holds the catalog of auditable alert types.
//
// A Definition describes one alert type: its integer code, severity, grouping
// category and the message template rendered when an occurrence is displayed.
// The Registry is built once at startup, optionally frozen, and then shared
// read-only by the dispatcher, the formatter and the archive engine.
package alerts

import "errors"

// Severity is the numeric severity code stored with every occurrence.
type Severity int

// Severity codes.
const (
	SeverityInformational Severity = 200
	SeverityLow           Severity = 250
	SeverityMedium        Severity = 300
	SeverityHigh          Severity = 400
	SeverityCritical      Severity = 500
)

// Legacy severity codes written before numbered severities existed.
const (
	legacyCritical Severity = 0
	legacyWarning  Severity = 1
	legacyNotice   Severity = 2
)

// Level returns the display level for the severity code.
func (s Severity) Level() string {
	switch NormalizeSeverity(s) {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	case SeverityInformational:
		return "informational"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the current severity codes.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInformational, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// NormalizeSeverity maps legacy codes onto the current scale and returns
// current codes unchanged. Unrecognized codes are returned as-is.
func NormalizeSeverity(s Severity) Severity {
	switch s {
	case legacyCritical:
		return SeverityCritical
	case legacyWarning:
		return SeverityHigh
	case legacyNotice:
		return SeverityLow
	}
	return s
}

// Definition describes one alert type.
type Definition struct {
	Type        int      `json:"type"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Description string   `json:"description"`
	Message     string   `json:"message"`

	// Object and EventType are the default classification of the event,
	// copied into triggered data when the caller does not supply them.
	Object    string `json:"object,omitempty"`
	EventType string `json:"event_type,omitempty"`
}

// Registry errors.
var (
	ErrRegistryFrozen    = errors.New("alert registry is frozen")
	ErrInvalidDefinition = errors.New("invalid alert definition")
)
