// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"context"
	"errors"
	"testing"
)

func seedMemory(t *testing.T, s Store, createdOn ...float64) []int64 {
	t.Helper()

	ctx := context.Background()
	ids := make([]int64, 0, len(createdOn))
	for i, ts := range createdOn {
		o := &Occurrence{AlertID: 1000 + i, CreatedOn: ts, Username: "alice"}
		if err := s.InsertOccurrence(ctx, o); err != nil {
			t.Fatalf("InsertOccurrence: %v", err)
		}
		if err := s.InsertMetadata(ctx, []Metadata{
			{OccurrenceID: o.ID, Name: "Username", Value: StringValue("alice")},
		}); err != nil {
			t.Fatalf("InsertMetadata: %v", err)
		}
		ids = append(ids, o.ID)
	}
	return ids
}

func TestMemoryStore_InsertAssignsIDs(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ids := seedMemory(t, s, 10, 20)
	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("ids = %v, want [1 2]", ids)
	}

	// An explicit id advances the generator.
	o := &Occurrence{ID: 50, AlertID: 1, CreatedOn: 30}
	if err := s.InsertOccurrence(context.Background(), o); err != nil {
		t.Fatalf("InsertOccurrence: %v", err)
	}
	next := &Occurrence{AlertID: 1, CreatedOn: 40}
	_ = s.InsertOccurrence(context.Background(), next)
	if next.ID != 51 {
		t.Errorf("next id = %d, want 51", next.ID)
	}
}

func TestMemoryStore_SelectOrderingAndPaging(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seedMemory(t, s, 30, 10, 20, 10)
	ctx := context.Background()

	list, err := s.SelectOccurrences(ctx, Filter{})
	if err != nil {
		t.Fatalf("SelectOccurrences: %v", err)
	}
	var got []float64
	for _, o := range list {
		got = append(got, o.CreatedOn)
	}
	want := []float64{10, 10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	// Ties broken by id.
	if list[0].ID > list[1].ID {
		t.Errorf("tie not ordered by id: %d before %d", list[0].ID, list[1].ID)
	}

	page, _ := s.SelectOccurrences(ctx, Filter{OrderDesc: true, Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].CreatedOn != 20 {
		t.Errorf("desc page = %+v", page)
	}

	before, _ := s.SelectOccurrences(ctx, Filter{CreatedBefore: Float64(20)})
	if len(before) != 2 {
		t.Errorf("created before 20 = %d rows, want 2", len(before))
	}

	n, _ := s.CountOccurrences(ctx, Filter{CreatedAfter: Float64(20), Limit: 1})
	if n != 2 {
		t.Errorf("count created after 20 = %d, want 2", n)
	}
}

func TestMemoryStore_DeleteAndMetadata(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ids := seedMemory(t, s, 1, 2, 3)
	ctx := context.Background()

	n, err := s.DeleteMetadata(ctx, ids[:2])
	if err != nil || n != 2 {
		t.Fatalf("DeleteMetadata = %d, %v", n, err)
	}
	n, err = s.DeleteOccurrences(ctx, ids[:2])
	if err != nil || n != 2 {
		t.Fatalf("DeleteOccurrences = %d, %v", n, err)
	}

	occ, meta := s.Len()
	if occ != 1 || meta != 1 {
		t.Errorf("Len = %d, %d; want 1, 1", occ, meta)
	}
	rows, _ := s.SelectMetadata(ctx, ids)
	if len(rows) != 1 || rows[0].OccurrenceID != ids[2] {
		t.Errorf("remaining metadata = %+v", rows)
	}
}

func TestMemoryStore_WithoutTables(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(WithoutTables())
	ctx := context.Background()

	err := s.UpsertOccurrences(ctx, []Occurrence{{ID: 1, AlertID: 1}})
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("expected ErrSchemaMissing, got %v", err)
	}
	if table, ok := MissingTable(err); !ok || table != TableOccurrences {
		t.Errorf("MissingTable = %q, %v", table, ok)
	}

	if exists, _ := s.TableExists(ctx, TableOccurrences); exists {
		t.Error("table should not exist yet")
	}
	if err := EnsureSchema(ctx, s); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := s.UpsertOccurrences(ctx, []Occurrence{{ID: 1, AlertID: 1}}); err != nil {
		t.Errorf("UpsertOccurrences after create: %v", err)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemoryStore().InsertOccurrence(ctx, &Occurrence{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGetOccurrence(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ids := seedMemory(t, s, 5)

	o, err := GetOccurrence(context.Background(), s, ids[0])
	if err != nil || o.CreatedOn != 5 {
		t.Fatalf("GetOccurrence = %+v, %v", o, err)
	}
	if _, err := GetOccurrence(context.Background(), s, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterMatches(t *testing.T) {
	t.Parallel()

	o := Occurrence{ID: 4, SiteID: 2, AlertID: 1000, CreatedOn: 50, Username: "bob"}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"site match", Filter{SiteID: Int64(2)}, true},
		{"site mismatch", Filter{SiteID: Int64(3)}, false},
		{"alert ids", Filter{AlertIDs: []int{1, 1000}}, true},
		{"ids mismatch", Filter{IDs: []int64{5}}, false},
		{"after inclusive", Filter{CreatedAfter: Float64(50)}, true},
		{"before exclusive", Filter{CreatedBefore: Float64(50)}, false},
		{"username", Filter{Username: "alice"}, false},
	}

	for _, tt := range tests {
		if got := tt.filter.Matches(&o); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}
