// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/auditrail/internal/logging"
)

// Watcher is the watch half of a koanf provider such as *file.File.
type Watcher interface {
	Watch(cb func(event interface{}, err error)) error
	Unwatch() error
}

// ConfigWatchService calls onChange whenever the watched source changes.
// A fresh Watcher is built on every start so a restart never reuses a
// closed one.
type ConfigWatchService struct {
	newWatcher func() Watcher
	onChange   func()
	name       string
}

// NewConfigWatchService creates the service.
func NewConfigWatchService(newWatcher func() Watcher, onChange func()) *ConfigWatchService {
	return &ConfigWatchService{
		newWatcher: newWatcher,
		onChange:   onChange,
		name:       "config-watcher",
	}
}

// Serve implements suture.Service.
func (s *ConfigWatchService) Serve(ctx context.Context) error {
	w := s.newWatcher()
	failed := make(chan error, 1)
	err := w.Watch(func(_ interface{}, err error) {
		if err != nil {
			select {
			case failed <- err:
			default:
			}
			return
		}
		s.onChange()
	})
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	defer func() {
		if err := w.Unwatch(); err != nil {
			logging.Warn().Err(err).Str("service", s.name).Msg("Failed to stop config watcher")
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("config watcher failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor events.
func (s *ConfigWatchService) String() string {
	return s.name
}
