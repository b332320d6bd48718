// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

//go:build integration

package occurrence

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/auditrail/internal/testinfra"
)

func setupPostgres(t *testing.T, tables TableNames) *SQLStore {
	t.Helper()

	pg := testinfra.NewPostgresContainer(t)
	s, err := NewSQLStore(pg.Open(t), Postgres, tables)
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	s := setupPostgres(t, DefaultTableNames())
	ctx := context.Background()

	if err := EnsureSchema(ctx, s); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	for _, table := range []Table{TableOccurrences, TableMetadata} {
		if exists, err := s.TableExists(ctx, table); err != nil || !exists {
			t.Fatalf("TableExists(%s) = %v, %v", table, exists, err)
		}
	}

	first := &Occurrence{
		SiteID: 1, AlertID: 1000, CreatedOn: 1700000000.123456, ClientIP: "10.0.0.5",
		Severity: 250, UserRoles: []string{"administrator"}, Username: "alice", UserID: 1,
	}
	second := &Occurrence{AlertID: 1001, CreatedOn: 1700000100, Username: "alice", UserID: 1}
	err := s.WithTx(ctx, func(tx Store) error {
		for _, o := range []*Occurrence{first, second} {
			if err := tx.InsertOccurrence(ctx, o); err != nil {
				return err
			}
		}
		return tx.InsertMetadata(ctx, []Metadata{
			{OccurrenceID: first.ID, Name: "Username", Value: StringValue("alice")},
			{OccurrenceID: first.ID, Name: "Attempts", Value: IntValue(3)},
			{OccurrenceID: second.ID, Name: "Roles", Value: NewValue([]string{"editor"})},
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	// BIGSERIAL ids come back through RETURNING.
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("generated ids = %d, %d", first.ID, second.ID)
	}

	got, err := GetOccurrence(ctx, s, first.ID)
	if err != nil {
		t.Fatalf("GetOccurrence: %v", err)
	}
	if got.CreatedOn != first.CreatedOn || got.ClientIP != "10.0.0.5" || len(got.UserRoles) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	list, err := s.SelectOccurrences(ctx, Filter{AlertIDs: []int{1001}})
	if err != nil || len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("SelectOccurrences by alert = %+v, %v", list, err)
	}

	meta, err := s.SelectMetadata(ctx, []int64{first.ID, second.ID})
	if err != nil {
		t.Fatalf("SelectMetadata: %v", err)
	}
	grouped := GroupMetadata(meta)
	if n, ok := grouped[first.ID]["Attempts"].AsInt(); !ok || n != 3 {
		t.Errorf("Attempts = %v", grouped[first.ID]["Attempts"])
	}
	if roles, ok := grouped[second.ID]["Roles"].AsStrings(); !ok || len(roles) != 1 || roles[0] != "editor" {
		t.Errorf("Roles = %v", grouped[second.ID]["Roles"])
	}

	// ON CONFLICT (id) DO UPDATE replaces the row in place and inserts new ids.
	updated := *got
	updated.Username = "alice2"
	err = s.UpsertOccurrences(ctx, []Occurrence{updated, {ID: second.ID + 100, AlertID: 1002, CreatedOn: 1700000200}})
	if err != nil {
		t.Fatalf("UpsertOccurrences: %v", err)
	}
	got, _ = GetOccurrence(ctx, s, first.ID)
	if got.Username != "alice2" {
		t.Errorf("Username after upsert = %q", got.Username)
	}
	if n, _ := s.CountOccurrences(ctx, Filter{}); n != 3 {
		t.Errorf("count after upsert = %d, want 3", n)
	}

	if n, err := s.DeleteMetadata(ctx, []int64{first.ID, second.ID}); err != nil || n != 3 {
		t.Errorf("DeleteMetadata = %d, %v", n, err)
	}
	if n, err := s.DeleteOccurrences(ctx, []int64{first.ID, second.ID, second.ID + 100}); err != nil || n != 3 {
		t.Errorf("DeleteOccurrences = %d, %v", n, err)
	}
}

func TestPostgresStore_MissingTable(t *testing.T) {
	s := setupPostgres(t, ArchiveTableNames())
	ctx := context.Background()

	if exists, err := s.TableExists(ctx, TableOccurrences); err != nil || exists {
		t.Fatalf("TableExists = %v, %v; want false", exists, err)
	}

	err := s.UpsertOccurrences(ctx, []Occurrence{{ID: 1, AlertID: 1000, CreatedOn: 1}})
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("expected ErrSchemaMissing, got %v", err)
	}
	if table, _ := MissingTable(err); table != TableOccurrences {
		t.Errorf("table = %q", table)
	}

	_, err = s.SelectMetadata(ctx, []int64{1})
	if table, ok := MissingTable(err); !ok || table != TableMetadata {
		t.Errorf("SelectMetadata error = %v", err)
	}

	if err := s.CreateTable(ctx, TableOccurrences); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := s.UpsertOccurrences(ctx, []Occurrence{{ID: 1, AlertID: 1000, CreatedOn: 1}}); err != nil {
		t.Errorf("UpsertOccurrences after create: %v", err)
	}
}
