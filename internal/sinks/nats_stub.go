// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

//go:build !nats

package sinks

import "github.com/ThreeDotsLabs/watermill/message"

// NewNATSPublisher returns ErrNATSUnavailable.
// Build with -tags=nats to enable the NATS JetStream publisher.
func NewNATSPublisher(NATSConfig) (message.Publisher, error) {
	return nil, ErrNATSUnavailable
}
