// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package occurrence defines persisted alert occurrences, their key/value
// metadata side-car rows, and the Store contract with in-memory and SQL
// implementations (DuckDB, SQLite, PostgreSQL).
package occurrence

import (
	"math"
	"sort"
	"time"
)

// Occurrence is one persisted instance of an alert being triggered.
type Occurrence struct {
	ID         int64    `json:"id"`
	SiteID     int64    `json:"site_id"`
	AlertID    int      `json:"alert_id"`
	CreatedOn  float64  `json:"created_on"`
	ClientIP   string   `json:"client_ip,omitempty"`
	Severity   int      `json:"severity"`
	Object     string   `json:"object,omitempty"`
	EventType  string   `json:"event_type,omitempty"`
	UserAgent  string   `json:"user_agent,omitempty"`
	UserRoles  []string `json:"user_roles,omitempty"`
	Username   string   `json:"username,omitempty"`
	UserID     int64    `json:"user_id,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
	PostStatus string   `json:"post_status,omitempty"`
	PostType   string   `json:"post_type,omitempty"`
	PostID     int64    `json:"post_id,omitempty"`
}

// Created returns CreatedOn as a time.Time.
func (o *Occurrence) Created() time.Time {
	sec, frac := math.Modf(o.CreatedOn)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Metadata is one key/value fact attached to an occurrence.
type Metadata struct {
	OccurrenceID int64  `json:"occurrence_id"`
	Name         string `json:"name"`
	Value        Value  `json:"value"`
}

// Table identifies one of the two logical tables.
type Table string

// Logical tables.
const (
	TableOccurrences Table = "occurrences"
	TableMetadata    Table = "metadata"
)

// Filter selects occurrences. Results are ordered by created_on then id,
// ascending unless OrderDesc is set.
type Filter struct {
	SiteID        *int64
	AlertIDs      []int
	IDs           []int64
	CreatedAfter  *float64 // inclusive
	CreatedBefore *float64 // exclusive
	Username      string
	OrderDesc     bool
	Limit         int
	Offset        int
}

// Matches reports whether o satisfies every condition of the filter.
// Limit, Offset and ordering are not considered.
func (f *Filter) Matches(o *Occurrence) bool {
	if f.SiteID != nil && o.SiteID != *f.SiteID {
		return false
	}
	if len(f.AlertIDs) > 0 && !containsInt(f.AlertIDs, o.AlertID) {
		return false
	}
	if len(f.IDs) > 0 && !containsInt(f.IDs, o.ID) {
		return false
	}
	if f.CreatedAfter != nil && o.CreatedOn < *f.CreatedAfter {
		return false
	}
	if f.CreatedBefore != nil && o.CreatedOn >= *f.CreatedBefore {
		return false
	}
	if f.Username != "" && o.Username != f.Username {
		return false
	}
	return true
}

// SortAndPage orders occurrences per the filter and applies Offset/Limit.
func (f *Filter) SortAndPage(list []Occurrence) []Occurrence {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.CreatedOn != b.CreatedOn {
			if f.OrderDesc {
				return a.CreatedOn > b.CreatedOn
			}
			return a.CreatedOn < b.CreatedOn
		}
		if f.OrderDesc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return nil
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list
}

// IDs returns the ids of the given occurrences in order.
func IDs(list []Occurrence) []int64 {
	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	return ids
}

// Float64 returns a pointer to v, for Filter bounds.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v, for Filter.SiteID.
func Int64(v int64) *int64 { return &v }

// Timestamp converts t to the CreatedOn representation.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func containsInt[T int | int64](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
