// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package sinks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// DefaultTopic is the topic events are published to when none is configured.
const DefaultTopic = "audit.events"

// ErrPublisherClosed is returned by Log after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// PublisherLogger publishes each event as a Watermill message.
type PublisherLogger struct {
	publisher message.Publisher
	topic     string
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPublisherLogger publishes events to topic through pub.
func NewPublisherLogger(pub message.Publisher, topic string) *PublisherLogger {
	if topic == "" {
		topic = DefaultTopic
	}
	return &PublisherLogger{publisher: pub, topic: topic, now: time.Now}
}

// Topic returns the destination topic.
func (p *PublisherLogger) Topic() string { return p.topic }

// Log implements dispatch.Logger.
func (p *PublisherLogger) Log(ctx context.Context, alertType, severity int, text string, data map[string]any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	event := NewEvent(alertType, severity, text, data, p.now())
	payload, err := event.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("alert_type", strconv.Itoa(alertType))
	msg.Metadata.Set("severity", strconv.Itoa(severity))
	msg.Metadata.Set("level", event.Level)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", event.ID, p.topic, err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *PublisherLogger) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
