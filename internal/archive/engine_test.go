// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// seed inserts one occurrence per timestamp, each with two metadata rows.
func seed(t *testing.T, s occurrence.Store, alertID int, timestamps ...float64) []int64 {
	t.Helper()

	ctx := context.Background()
	ids := make([]int64, 0, len(timestamps))
	for _, ts := range timestamps {
		o := &occurrence.Occurrence{AlertID: alertID, CreatedOn: ts, Severity: int(alerts.SeverityMedium), Username: "alice", UserID: 1}
		if err := s.InsertOccurrence(ctx, o); err != nil {
			t.Fatalf("InsertOccurrence: %v", err)
		}
		err := s.InsertMetadata(ctx, []occurrence.Metadata{
			{OccurrenceID: o.ID, Name: "PostTitle", Value: occurrence.StringValue("Hello")},
			{OccurrenceID: o.ID, Name: "PostID", Value: occurrence.IntValue(o.ID)},
		})
		if err != nil {
			t.Fatalf("InsertMetadata: %v", err)
		}
		ids = append(ids, o.ID)
	}
	return ids
}

func counts(t *testing.T, s occurrence.Store) (occ, meta int64) {
	t.Helper()

	ctx := context.Background()
	list, err := s.SelectOccurrences(ctx, occurrence.Filter{})
	if err != nil {
		t.Fatalf("SelectOccurrences: %v", err)
	}
	occ = int64(len(list))
	meta, err = s.CountMetadata(ctx, occurrence.IDs(list))
	if err != nil {
		t.Fatalf("CountMetadata: %v", err)
	}
	return occ, meta
}

// assertNoOrphans fails if s holds metadata for an occurrence it does not have.
func assertNoOrphans(t *testing.T, s *occurrence.MemoryStore) {
	t.Helper()

	occ, meta := counts(t, s)
	_, totalMeta := s.Len()
	if int64(totalMeta) != meta {
		t.Errorf("store holds %d metadata rows but only %d belong to its %d occurrences", totalMeta, meta, occ)
	}
}

// faultyStore wraps a store and injects failures.
type faultyStore struct {
	occurrence.Store

	upsertErr     error
	insertMetaErr error
	deleteMetaErr error
	createErr     error
	createNoop    bool
	dropOccCount  int64

	creates atomic.Int32
}

func (f *faultyStore) UpsertOccurrences(ctx context.Context, list []occurrence.Occurrence) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Store.UpsertOccurrences(ctx, list)
}

func (f *faultyStore) InsertMetadata(ctx context.Context, rows []occurrence.Metadata) error {
	if f.insertMetaErr != nil {
		return f.insertMetaErr
	}
	return f.Store.InsertMetadata(ctx, rows)
}

func (f *faultyStore) DeleteMetadata(ctx context.Context, ids []int64) (int64, error) {
	if f.deleteMetaErr != nil {
		return 0, f.deleteMetaErr
	}
	return f.Store.DeleteMetadata(ctx, ids)
}

func (f *faultyStore) CountOccurrences(ctx context.Context, filter occurrence.Filter) (int64, error) {
	n, err := f.Store.CountOccurrences(ctx, filter)
	return n - f.dropOccCount, err
}

func (f *faultyStore) CreateTable(ctx context.Context, table occurrence.Table) error {
	f.creates.Add(1)
	if f.createErr != nil {
		return f.createErr
	}
	if f.createNoop {
		return nil
	}
	return f.Store.CreateTable(ctx, table)
}

func TestArchive_ByAgeScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 100, 200, 300, 500, 600)
	dest := occurrence.NewMemoryStore(occurrence.WithoutTables())

	moved, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 400}, dest)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if moved != 3 {
		t.Errorf("moved = %d, want 3", moved)
	}

	srcOcc, srcMeta := counts(t, source)
	dstOcc, dstMeta := counts(t, dest)
	if srcOcc != 2 || dstOcc != 3 {
		t.Errorf("source=%d dest=%d occurrences, want 2 and 3", srcOcc, dstOcc)
	}
	if srcMeta+dstMeta != 10 {
		t.Errorf("metadata not conserved: source=%d dest=%d", srcMeta, dstMeta)
	}
	assertNoOrphans(t, source)
	assertNoOrphans(t, dest)

	remaining, _ := source.SelectOccurrences(ctx, occurrence.Filter{})
	for _, o := range remaining {
		if o.CreatedOn < 400 {
			t.Errorf("occurrence %d older than cutoff left in source", o.ID)
		}
	}
}

func TestArchive_DestinationFailureDeletesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store func() *faultyStore
	}{
		{"occurrence write fails", func() *faultyStore {
			return &faultyStore{Store: occurrence.NewMemoryStore(), upsertErr: occurrence.Unavailable("upsert", errors.New("connection refused"))}
		}},
		{"metadata write fails", func() *faultyStore {
			return &faultyStore{Store: occurrence.NewMemoryStore(), insertMetaErr: errors.New("disk full")}
		}},
		{"verification fails", func() *faultyStore {
			return &faultyStore{Store: occurrence.NewMemoryStore(), dropOccCount: 1}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			source := occurrence.NewMemoryStore()
			seed(t, source, 2000, 1, 2, 3)
			dest := tt.store()

			moved, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest)
			if err == nil {
				t.Fatal("expected an error")
			}
			if moved != 0 {
				t.Errorf("moved = %d, want 0", moved)
			}
			if occ, meta := counts(t, source); occ != 3 || meta != 6 {
				t.Errorf("source changed after failed batch: %d occurrences, %d metadata", occ, meta)
			}
			if dest.creates.Load() != 0 {
				t.Errorf("non-schema failure must not create tables, got %d", dest.creates.Load())
			}
		})
	}
}

func TestArchive_VerificationFailureIsPartialBatch(t *testing.T) {
	t.Parallel()

	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1, 2)
	dest := &faultyStore{Store: occurrence.NewMemoryStore(), dropOccCount: 1}

	_, err := NewEngine(source).Archive(context.Background(), ByAge{CreatedBefore: 10}, dest)
	var partial *PartialBatchError
	if !errors.As(err, &partial) || !errors.Is(err, ErrPartialBatch) {
		t.Fatalf("expected *PartialBatchError, got %v", err)
	}
	if partial.ExpectedOccurrences != 2 || partial.FoundOccurrences != 1 {
		t.Errorf("partial = %+v", partial)
	}
}

func TestArchive_SchemaHealRunsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1, 2)

	t.Run("table still missing after create", func(t *testing.T) {
		dest := &faultyStore{Store: occurrence.NewMemoryStore(occurrence.WithoutTables()), createNoop: true}

		_, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest)
		if !errors.Is(err, ErrSchemaHealFailed) || !errors.Is(err, occurrence.ErrStoreUnavailable) {
			t.Fatalf("expected schema heal failure classed as unavailable, got %v", err)
		}
		if got := dest.creates.Load(); got != 1 {
			t.Errorf("CreateTable called %d times, want 1", got)
		}
		if occ, _ := counts(t, source); occ != 2 {
			t.Errorf("source lost rows: %d", occ)
		}
	})

	t.Run("create fails", func(t *testing.T) {
		dest := &faultyStore{Store: occurrence.NewMemoryStore(occurrence.WithoutTables()), createErr: errors.New("permission denied")}

		_, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest)
		var heal *SchemaHealError
		if !errors.As(err, &heal) || heal.Table != occurrence.TableOccurrences {
			t.Fatalf("expected *SchemaHealError for occurrences, got %v", err)
		}
		if got := dest.creates.Load(); got != 1 {
			t.Errorf("CreateTable called %d times, want 1", got)
		}
	})

	t.Run("heals both tables", func(t *testing.T) {
		dest := &faultyStore{Store: occurrence.NewMemoryStore(occurrence.WithoutTables())}

		moved, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest)
		if err != nil {
			t.Fatalf("Archive: %v", err)
		}
		if moved != 2 || dest.creates.Load() != 2 {
			t.Errorf("moved=%d creates=%d, want 2 and 2", moved, dest.creates.Load())
		}
	})
}

func TestArchive_RetryAfterSourceDeleteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := occurrence.NewMemoryStore()
	seed(t, mem, 2000, 1, 2)
	source := &faultyStore{Store: mem, deleteMetaErr: errors.New("lock timeout")}
	dest := occurrence.NewMemoryStore()

	if _, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest); err == nil {
		t.Fatal("expected source delete failure")
	}
	// The copy is complete but the source still holds everything.
	if occ, meta := counts(t, source); occ != 2 || meta != 4 {
		t.Fatalf("source = %d/%d", occ, meta)
	}

	source.deleteMetaErr = nil
	moved, err := NewEngine(source).Archive(ctx, ByAge{CreatedBefore: 10}, dest)
	if err != nil || moved != 2 {
		t.Fatalf("retry = %d, %v", moved, err)
	}
	if occ, meta := counts(t, dest); occ != 2 || meta != 4 {
		t.Errorf("retry duplicated rows in destination: %d occurrences, %d metadata", occ, meta)
	}
}

func TestArchive_IdentityReconciliation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	rows := []occurrence.Occurrence{
		{AlertID: 1000, CreatedOn: 1, UserID: 1},            // resolves to alice
		{AlertID: 1000, CreatedOn: 2, UserID: 2},            // user deleted
		{AlertID: 1002, CreatedOn: 3},                       // nothing identifies the user
		{AlertID: 1001, CreatedOn: 4, Username: "Bob"},      // id backfilled
		{AlertID: 2000, CreatedOn: 5},                       // not an identity type
		{AlertID: 1003, CreatedOn: 6, Username: "mallory"}, // unknown name stays
	}
	for i := range rows {
		if err := source.InsertOccurrence(ctx, &rows[i]); err != nil {
			t.Fatalf("InsertOccurrence: %v", err)
		}
	}
	dir := NewStaticDirectory(User{ID: 1, Username: "alice"}, User{ID: 5, Username: "bob"})
	dest := occurrence.NewMemoryStore()

	if _, err := NewEngine(source, WithUserDirectory(dir)).Archive(ctx, ByAge{CreatedBefore: 10}, dest); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, _ := dest.SelectOccurrences(ctx, occurrence.Filter{})
	want := []struct {
		username string
		userID   int64
	}{
		{"alice", 1}, {DeletedUser, 2}, {UnknownUser, 0}, {"Bob", 5}, {"", 0}, {"mallory", 0},
	}
	for i, w := range want {
		if got[i].Username != w.username || got[i].UserID != w.userID {
			t.Errorf("row %d = %q/%d, want %q/%d", i, got[i].Username, got[i].UserID, w.username, w.userID)
		}
	}
}

func TestArchive_LegacyNormalization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	registry := alerts.NewRegistry()
	_ = registry.Register(alerts.Definition{Type: 2000, Severity: alerts.SeverityHigh, Category: "Content"})

	rows := []occurrence.Occurrence{
		{AlertID: 2000, CreatedOn: 1, ClientIP: `["10.0.0.5","172.16.0.1"]`, UserRoles: []string{" admin", "admin", "", "editor"}, Severity: 1},
		{AlertID: 2000, CreatedOn: 2, ClientIP: `"192.0.2.4"`, Severity: 999},
	}
	for i := range rows {
		_ = source.InsertOccurrence(ctx, &rows[i])
	}
	dest := occurrence.NewMemoryStore()

	if _, err := NewEngine(source, WithRegistry(registry)).Archive(ctx, ByAge{CreatedBefore: 10}, dest); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, _ := dest.SelectOccurrences(ctx, occurrence.Filter{})
	if got[0].ClientIP != "10.0.0.5" || got[1].ClientIP != "192.0.2.4" {
		t.Errorf("client ips = %q, %q", got[0].ClientIP, got[1].ClientIP)
	}
	if len(got[0].UserRoles) != 2 || got[0].UserRoles[0] != "admin" || got[0].UserRoles[1] != "editor" {
		t.Errorf("roles = %v", got[0].UserRoles)
	}
	if got[0].Severity != int(alerts.SeverityHigh) {
		t.Errorf("legacy warning severity = %d, want %d", got[0].Severity, alerts.SeverityHigh)
	}
	if got[1].Severity != int(alerts.SeverityHigh) {
		t.Errorf("unmappable severity should take the definition's, got %d", got[1].Severity)
	}
}

func TestArchive_ByRetention(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 10, 20, 30, 40, 50)
	dest := occurrence.NewMemoryStore()
	e := NewEngine(source)

	moved, err := e.Archive(ctx, ByRetention{Keep: 2, BatchSize: 10}, dest)
	if err != nil || moved != 3 {
		t.Fatalf("Archive = %d, %v; want 3", moved, err)
	}
	kept, _ := source.SelectOccurrences(ctx, occurrence.Filter{})
	if len(kept) != 2 || kept[0].CreatedOn != 40 {
		t.Errorf("kept = %+v", kept)
	}

	moved, err = e.Archive(ctx, ByRetention{Keep: 2}, dest)
	if err != nil || moved != 0 {
		t.Errorf("second Archive = %d, %v; want nothing to do", moved, err)
	}
	if _, err := e.Archive(ctx, ByRetention{Keep: -1}, dest); err == nil {
		t.Error("negative keep count must be rejected")
	}
}

func TestRun_ByCursorBatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1, 2, 3, 4, 5, 100)
	dest := occurrence.NewMemoryStore()

	res, err := NewEngine(source).Run(ctx, ByCursor{LastMigrated: 0, Before: 50, BatchSize: 2}, dest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Batches != 3 || res.Migrated != 5 || res.Cursor != 5 {
		t.Errorf("Result = %+v, want 3 batches, 5 migrated, cursor 5", res)
	}
	if occ, _ := counts(t, source); occ != 1 {
		t.Errorf("source has %d occurrences, want 1", occ)
	}
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func TestRun_PacesBetweenBatches(t *testing.T) {
	t.Parallel()

	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1, 2, 3, 4)
	pacer := &countingPacer{}

	res, err := NewEngine(source, WithPacer(pacer)).Run(context.Background(), ByAge{CreatedBefore: 10, BatchSize: 2}, occurrence.NewMemoryStore())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Two full batches, then an empty batch.
	if res.Batches != 2 || pacer.waits != 2 {
		t.Errorf("batches=%d waits=%d", res.Batches, pacer.waits)
	}
}

func TestRun_CanceledBeforeFirstBatch(t *testing.T) {
	t.Parallel()

	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEngine(source).Run(ctx, ByAge{CreatedBefore: 10}, occurrence.NewMemoryStore())
	if !errors.Is(err, context.Canceled) || res.Batches != 0 {
		t.Errorf("Run = %+v, %v", res, err)
	}
	if occ, _ := counts(t, source); occ != 1 {
		t.Error("canceled run must not touch the source")
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := occurrence.NewMemoryStore()
	seed(t, source, 2000, 1, 2, 3, 20, 30)
	e := NewEngine(source)

	n, err := e.Prune(ctx, ByAge{CreatedBefore: 10})
	if err != nil || n != 3 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	if occ, meta := counts(t, source); occ != 2 || meta != 4 {
		t.Errorf("source = %d/%d, want 2/4", occ, meta)
	}
	assertNoOrphans(t, source)

	res, err := e.RunPrune(ctx, ByRetention{Keep: 1, BatchSize: 1})
	if err != nil || res.Migrated != 1 {
		t.Errorf("RunPrune = %+v, %v", res, err)
	}
}
