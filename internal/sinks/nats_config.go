// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package sinks

import (
	"errors"
	"time"
)

// ErrNATSUnavailable is returned by NewNATSPublisher in builds without the
// nats tag.
var ErrNATSUnavailable = errors.New("NATS publisher not available: build with -tags=nats")

// NATSConfig configures the NATS JetStream connection of the publisher sink.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns production defaults for url.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}
