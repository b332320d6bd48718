// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package sinks

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// Event is the serialized form of a dispatched alert used by the file and
// publisher sinks.
type Event struct {
	ID        string                      `json:"id"`
	AlertType int                         `json:"alert_type"`
	Severity  int                         `json:"severity"`
	Level     string                      `json:"level"`
	Message   string                      `json:"message"`
	CreatedOn float64                     `json:"created_on"`
	Data      map[string]occurrence.Value `json:"data,omitempty"`
}

// NewEvent builds an Event from logger arguments. The Timestamp entry
// becomes CreatedOn; now is used when it is absent.
func NewEvent(alertType, severity int, message string, data map[string]any, now time.Time) Event {
	e := Event{
		ID:        uuid.NewString(),
		AlertType: alertType,
		Severity:  severity,
		Level:     alerts.Severity(severity).Level(),
		Message:   message,
		CreatedOn: occurrence.Timestamp(now),
	}
	if ts, ok := occurrence.NewValue(data[dispatch.KeyTimestamp]).AsFloat(); ok {
		e.CreatedOn = ts
	}
	if len(data) > 0 {
		e.Data = make(map[string]occurrence.Value, len(data))
		for k, v := range data {
			if k != dispatch.KeyTimestamp {
				e.Data[k] = occurrence.NewValue(v)
			}
		}
	}
	return e
}

// Marshal encodes the event as JSON.
func (e *Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
	}
	return data, nil
}

// UnmarshalEvent decodes an event produced by Marshal.
func UnmarshalEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}
