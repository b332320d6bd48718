// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package api

import (
	"context"
	"time"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/format"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RenderOptions configure message rendering for the occurrence endpoints.
type RenderOptions struct {
	// DefaultFormat is the preset used when a request names none.
	DefaultFormat string
	// MaxMetaValueLength overrides the preset's truncation length when
	// set. Zero disables truncation.
	MaxMetaValueLength *int
}

// Deps are the collaborators of the HTTP handlers. Archive may be nil.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Live       occurrence.Store
	Archive    occurrence.Store
	Formatter  *format.Formatter
	Render     RenderOptions
	Checks     []ReadinessCheck
}

// Handler serves the audit API.
type Handler struct {
	registry   *alerts.Registry
	dispatcher *dispatch.Dispatcher
	live       occurrence.Store
	archive    occurrence.Store
	formatter  *format.Formatter
	render     RenderOptions
	checks     []ReadinessCheck
	startTime  time.Time
}

// NewHandler creates a handler. The registry is taken from the dispatcher.
func NewHandler(deps Deps) *Handler {
	if deps.Formatter == nil {
		deps.Formatter = format.New()
	}
	if deps.Render.DefaultFormat == "" {
		deps.Render.DefaultFormat = "rich"
	}
	return &Handler{
		registry:   deps.Dispatcher.Registry(),
		dispatcher: deps.Dispatcher,
		live:       deps.Live,
		archive:    deps.Archive,
		formatter:  deps.Formatter,
		render:     deps.Render,
		checks:     deps.Checks,
		startTime:  time.Now(),
	}
}

// renderConfig resolves a format name to a configuration.
func (h *Handler) renderConfig(name string) (format.Configuration, bool) {
	if name == "" {
		name = h.render.DefaultFormat
	}
	cfg, ok := format.Preset(name)
	if !ok {
		return format.Configuration{}, false
	}
	if h.render.MaxMetaValueLength != nil {
		cfg.MaxMetaValueLength = *h.render.MaxMetaValueLength
	}
	return cfg, true
}
