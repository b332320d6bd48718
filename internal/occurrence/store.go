// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import "context"

// Store persists occurrences and their metadata.
//
// Operations against a table that does not exist fail with a
// *SchemaMissingError. Id lists of any length are accepted; adapters split
// them into bounded batches.
type Store interface {
	// InsertOccurrence stores o and, when o.ID is zero, sets it to the
	// generated id.
	InsertOccurrence(ctx context.Context, o *Occurrence) error

	// UpsertOccurrences inserts or replaces occurrences by id.
	UpsertOccurrences(ctx context.Context, list []Occurrence) error

	// InsertMetadata stores metadata rows.
	InsertMetadata(ctx context.Context, rows []Metadata) error

	// SelectOccurrences returns occurrences matching the filter.
	SelectOccurrences(ctx context.Context, filter Filter) ([]Occurrence, error)

	// CountOccurrences counts matches, ignoring Limit and Offset.
	CountOccurrences(ctx context.Context, filter Filter) (int64, error)

	// SelectMetadata returns the metadata rows of the given occurrences.
	SelectMetadata(ctx context.Context, occurrenceIDs []int64) ([]Metadata, error)

	// CountMetadata counts the metadata rows of the given occurrences.
	CountMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error)

	// DeleteMetadata removes the metadata rows of the given occurrences.
	DeleteMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error)

	// DeleteOccurrences removes occurrences by id.
	DeleteOccurrences(ctx context.Context, ids []int64) (int64, error)

	// TableExists reports whether the table exists.
	TableExists(ctx context.Context, table Table) (bool, error)

	// CreateTable creates the table from the known schema if it is missing.
	CreateTable(ctx context.Context, table Table) error
}

// Transactor is implemented by stores that can run several operations
// atomically. fn receives a Store bound to the transaction; returning an
// error rolls it back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}

// GetOccurrence fetches a single occurrence by id.
func GetOccurrence(ctx context.Context, s Store, id int64) (*Occurrence, error) {
	list, err := s.SelectOccurrences(ctx, Filter{IDs: []int64{id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// EnsureSchema creates both tables.
func EnsureSchema(ctx context.Context, s Store) error {
	for _, t := range []Table{TableOccurrences, TableMetadata} {
		if err := s.CreateTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
