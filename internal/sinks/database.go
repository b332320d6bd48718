// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package sinks provides the dispatch.Logger implementations: the store
// backed DatabaseLogger, JSON-lines FileLogger, zerolog ConsoleLogger and
// the Watermill PublisherLogger.
package sinks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/metrics"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// Trigger data keys mapped onto occurrence columns.
const (
	KeyUsername         = "Username"
	KeyCurrentUserID    = "CurrentUserID"
	KeyCurrentUserRoles = "CurrentUserRoles"
	KeySessionID        = "SessionID"
	KeyPostStatus       = "PostStatus"
	KeyPostType         = "PostType"
	KeyPostID           = "PostID"
)

// DatabaseLogger persists each event as one occurrence plus one metadata
// row per data entry.
type DatabaseLogger struct {
	store  occurrence.Store
	name   string
	siteID int64
	now    func() time.Time
	log    zerolog.Logger
}

// DatabaseOption configures a DatabaseLogger.
type DatabaseOption func(*DatabaseLogger)

// WithSiteID sets the site id used when the event carries none.
func WithSiteID(id int64) DatabaseOption {
	return func(l *DatabaseLogger) { l.siteID = id }
}

// WithStoreName sets the label used for store metrics.
func WithStoreName(name string) DatabaseOption {
	return func(l *DatabaseLogger) { l.name = name }
}

// WithClock overrides the time source used when the event has no timestamp.
func WithClock(now func() time.Time) DatabaseOption {
	return func(l *DatabaseLogger) { l.now = now }
}

// NewDatabaseLogger creates a logger writing to store.
func NewDatabaseLogger(store occurrence.Store, opts ...DatabaseOption) *DatabaseLogger {
	l := &DatabaseLogger{
		store: store,
		name:  "live",
		now:   time.Now,
		log:   logging.WithComponent("sinks.database"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log implements dispatch.Logger.
//
// When the store is an occurrence.Transactor both writes share one
// transaction. Otherwise the occurrence is written first so a failed
// metadata insert leaves an occurrence without detail rather than orphaned
// metadata.
func (l *DatabaseLogger) Log(ctx context.Context, alertType, severity int, _ string, data map[string]any) error {
	start := time.Now()

	occ := l.buildOccurrence(alertType, severity, data)
	write := func(s occurrence.Store) error {
		if err := s.InsertOccurrence(ctx, occ); err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
		if err := s.InsertMetadata(ctx, buildMetadata(occ.ID, data)); err != nil {
			return fmt.Errorf("failed to insert metadata for occurrence %d: %w", occ.ID, err)
		}
		return nil
	}

	var err error
	if tx, ok := l.store.(occurrence.Transactor); ok {
		err = tx.WithTx(ctx, write)
	} else {
		err = write(l.store)
	}
	metrics.RecordStoreOperation(l.name, "log", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to record alert %d: %w", alertType, err)
	}
	l.log.Debug().
		Int("alert_type", alertType).
		Int64("occurrence_id", occ.ID).
		Int("metadata", len(data)).
		Msg("Alert recorded")
	return nil
}

func (l *DatabaseLogger) buildOccurrence(alertType, severity int, data map[string]any) *occurrence.Occurrence {
	o := &occurrence.Occurrence{
		SiteID:     l.siteID,
		AlertID:    alertType,
		Severity:   severity,
		ClientIP:   firstString(data[dispatch.KeyClientIP]),
		UserAgent:  firstString(data[dispatch.KeyUserAgent]),
		Object:     firstString(data[dispatch.KeyObject]),
		EventType:  firstString(data[dispatch.KeyEventType]),
		Username:   firstString(data[KeyUsername]),
		SessionID:  firstString(data[KeySessionID]),
		PostStatus: firstString(data[KeyPostStatus]),
		PostType:   firstString(data[KeyPostType]),
		UserRoles:  roles(data[KeyCurrentUserRoles]),
	}
	o.UserID, _ = occurrence.NewValue(data[KeyCurrentUserID]).AsInt()
	o.PostID, _ = occurrence.NewValue(data[KeyPostID]).AsInt()
	if id, ok := occurrence.NewValue(data[dispatch.KeySiteID]).AsInt(); ok {
		o.SiteID = id
	}
	if ts, ok := occurrence.NewValue(data[dispatch.KeyTimestamp]).AsFloat(); ok {
		o.CreatedOn = ts
	} else {
		o.CreatedOn = occurrence.Timestamp(l.now())
	}
	return o
}

// buildMetadata returns one row per data entry, sorted by name. The
// Timestamp key is stored only as the occurrence's created_on.
func buildMetadata(id int64, data map[string]any) []occurrence.Metadata {
	names := make([]string, 0, len(data))
	for name := range data {
		if name != dispatch.KeyTimestamp {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	rows := make([]occurrence.Metadata, len(names))
	for i, name := range names {
		rows[i] = occurrence.Metadata{OccurrenceID: id, Name: name, Value: occurrence.NewValue(data[name])}
	}
	return rows
}

// firstString returns the text of v. For list values the first element is
// used, matching client IPs recorded as a list of forwarded addresses.
func firstString(v any) string {
	if v == nil {
		return ""
	}
	val := occurrence.NewValue(v)
	if val.Kind() == occurrence.KindJSON {
		if list, ok := val.AsStrings(); ok {
			if len(list) == 0 {
				return ""
			}
			return list[0]
		}
	}
	return val.String()
}

func roles(v any) []string {
	if v == nil {
		return nil
	}
	val := occurrence.NewValue(v)
	if s, ok := val.AsString(); ok {
		var out []string
		for _, r := range strings.Split(s, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
		return out
	}
	list, _ := val.AsStrings()
	return list
}
