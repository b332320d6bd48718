// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package dispatch

import "context"

// Logger is a sink that receives every dispatched event.
//
// message is the definition's template, unrendered. data is a private copy
// the logger may keep or modify.
type Logger interface {
	Log(ctx context.Context, alertType int, severity int, message string, data map[string]any) error
}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(ctx context.Context, alertType int, severity int, message string, data map[string]any) error

// Log implements Logger.
func (f LoggerFunc) Log(ctx context.Context, alertType int, severity int, message string, data map[string]any) error {
	return f(ctx, alertType, severity, message, data)
}

// Well-known data keys.
const (
	KeyClientIP  = "ClientIP"
	KeyUserAgent = "UserAgent"
	KeyTimestamp = "Timestamp"
	KeyObject    = "Object"
	KeyEventType = "EventType"
	KeySiteID    = "SiteID"
)

// RequestInfo is the ambient request context merged into triggered data.
type RequestInfo struct {
	ClientIP  string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo returns a context carrying the current request's details.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the request details stored in ctx.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
