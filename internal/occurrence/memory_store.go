// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"context"
	"sync"
)

// MemoryStore implements Store in memory. Suitable for development and
// tests; data is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	occurrences map[int64]Occurrence
	metadata    []Metadata
	nextID      int64
	tables      map[Table]bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithoutTables starts the store with no tables, as a freshly provisioned
// database would be. CreateTable must run before the tables accept writes.
func WithoutTables() MemoryOption {
	return func(s *MemoryStore) {
		s.tables = map[Table]bool{}
	}
}

// NewMemoryStore creates an in-memory store with both tables present.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		occurrences: make(map[int64]Occurrence),
		tables:      map[Table]bool{TableOccurrences: true, TableMetadata: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireLocked must be called with mu held.
func (s *MemoryStore) requireLocked(t Table) error {
	if !s.tables[t] {
		return &SchemaMissingError{Table: t}
	}
	return nil
}

// InsertOccurrence implements Store.
func (s *MemoryStore) InsertOccurrence(ctx context.Context, o *Occurrence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(TableOccurrences); err != nil {
		return err
	}
	if o.ID == 0 {
		s.nextID++
		o.ID = s.nextID
	} else if o.ID > s.nextID {
		s.nextID = o.ID
	}
	s.occurrences[o.ID] = cloneOccurrence(o)
	return nil
}

// UpsertOccurrences implements Store.
func (s *MemoryStore) UpsertOccurrences(ctx context.Context, list []Occurrence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(TableOccurrences); err != nil {
		return err
	}
	for i := range list {
		o := list[i]
		if o.ID == 0 {
			s.nextID++
			o.ID = s.nextID
		} else if o.ID > s.nextID {
			s.nextID = o.ID
		}
		s.occurrences[o.ID] = cloneOccurrence(&o)
	}
	return nil
}

// InsertMetadata implements Store.
func (s *MemoryStore) InsertMetadata(ctx context.Context, rows []Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(TableMetadata); err != nil {
		return err
	}
	s.metadata = append(s.metadata, rows...)
	return nil
}

// SelectOccurrences implements Store.
func (s *MemoryStore) SelectOccurrences(ctx context.Context, filter Filter) ([]Occurrence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireLocked(TableOccurrences); err != nil {
		return nil, err
	}
	var out []Occurrence
	for id := range s.occurrences {
		o := s.occurrences[id]
		if filter.Matches(&o) {
			out = append(out, cloneOccurrence(&o))
		}
	}
	return filter.SortAndPage(out), nil
}

// CountOccurrences implements Store.
func (s *MemoryStore) CountOccurrences(ctx context.Context, filter Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireLocked(TableOccurrences); err != nil {
		return 0, err
	}
	var n int64
	for id := range s.occurrences {
		o := s.occurrences[id]
		if filter.Matches(&o) {
			n++
		}
	}
	return n, nil
}

// SelectMetadata implements Store. Rows come back in insertion order.
func (s *MemoryStore) SelectMetadata(ctx context.Context, occurrenceIDs []int64) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireLocked(TableMetadata); err != nil {
		return nil, err
	}
	want := idSet(occurrenceIDs)
	var out []Metadata
	for _, row := range s.metadata {
		if want[row.OccurrenceID] {
			out = append(out, row)
		}
	}
	return out, nil
}

// CountMetadata implements Store.
func (s *MemoryStore) CountMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error) {
	rows, err := s.SelectMetadata(ctx, occurrenceIDs)
	return int64(len(rows)), err
}

// DeleteMetadata implements Store.
func (s *MemoryStore) DeleteMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(TableMetadata); err != nil {
		return 0, err
	}
	drop := idSet(occurrenceIDs)
	kept := s.metadata[:0]
	var n int64
	for _, row := range s.metadata {
		if drop[row.OccurrenceID] {
			n++
			continue
		}
		kept = append(kept, row)
	}
	s.metadata = kept
	return n, nil
}

// DeleteOccurrences implements Store.
func (s *MemoryStore) DeleteOccurrences(ctx context.Context, ids []int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(TableOccurrences); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := s.occurrences[id]; ok {
			delete(s.occurrences, id)
			n++
		}
	}
	return n, nil
}

// TableExists implements Store.
func (s *MemoryStore) TableExists(_ context.Context, table Table) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[table], nil
}

// CreateTable implements Store.
func (s *MemoryStore) CreateTable(_ context.Context, table Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = true
	return nil
}

// Len returns the number of stored occurrences and metadata rows.
func (s *MemoryStore) Len() (occurrences, metadata int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.occurrences), len(s.metadata)
}

func cloneOccurrence(o *Occurrence) Occurrence {
	c := *o
	if o.UserRoles != nil {
		c.UserRoles = append([]string(nil), o.UserRoles...)
	}
	return c
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
