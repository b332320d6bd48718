// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package sinks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/logging"
)

// ConsoleLogger writes each event to a zerolog logger. High and critical
// alerts are logged at warn level, everything else at info.
type ConsoleLogger struct {
	log zerolog.Logger
}

// NewConsoleLogger uses the global logger with an "audit" component.
func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{log: logging.WithComponent("audit")}
}

// NewConsoleLoggerWith writes to l.
func NewConsoleLoggerWith(l zerolog.Logger) *ConsoleLogger {
	return &ConsoleLogger{log: l}
}

// Log implements dispatch.Logger.
func (c *ConsoleLogger) Log(_ context.Context, alertType, severity int, message string, data map[string]any) error {
	sev := alerts.Severity(severity)

	event := c.log.Info()
	if alerts.NormalizeSeverity(sev) >= alerts.SeverityHigh {
		event = c.log.Warn()
	}
	event.
		Int("alert_type", alertType).
		Int("severity", severity).
		Str("level", sev.Level()).
		Fields(data).
		Msg(message)
	return nil
}
