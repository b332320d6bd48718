// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package main

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/config"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/logging"
)

// reloader applies config file changes that take effect without a restart:
// the disabled alert set and the log level. A file edit that leaves
// alerts.disabled unchanged does not override a set changed through the
// API.
type reloader struct {
	path       string
	dispatcher *dispatch.Dispatcher

	mu       sync.Mutex
	disabled []int
	level    string
}

func newReloader(path string, cfg *config.Config, d *dispatch.Dispatcher) *reloader {
	return &reloader{
		path:       path,
		dispatcher: d,
		disabled:   normalizeTypes(cfg.Alerts.Disabled),
		level:      cfg.Logging.Level,
	}
}

func (r *reloader) apply() {
	cfg, err := config.LoadFile(r.path)
	if err != nil {
		logging.Warn().Err(err).Str("path", r.path).Msg("Ignoring invalid config change")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if disabled := normalizeTypes(cfg.Alerts.Disabled); !slices.Equal(disabled, r.disabled) {
		r.disabled = disabled
		r.dispatcher.SetDisabled(disabled)
	}
	if cfg.Logging.Level != r.level {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			r.level = cfg.Logging.Level
			logging.SetLevel(level)
			logging.Info().Str("level", cfg.Logging.Level).Msg("Log level changed")
		}
	}
}

func normalizeTypes(types []int) []int {
	out := slices.Clone(types)
	slices.Sort(out)
	return slices.Compact(out)
}
