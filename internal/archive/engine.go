// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package archive moves aged occurrences from the live store to an archive
// store, or prunes them, in bounded batches.
//
// Each archive batch is copy-then-delete: occurrences and their metadata are
// written to the destination and counted there before anything is removed
// from the source, and source metadata is removed before the occurrences it
// references. A failed batch can be re-run as is. When a destination table is
// missing it is created from the known schema and the write is retried once.
//
// Cancellation is checked between batches only.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/metrics"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// Modes label metrics and logs.
const (
	ModeArchive = "archive"
	ModePrune   = "prune"
)

// Pacer delays the next batch. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Engine archives and prunes occurrences of a source store.
type Engine struct {
	source   occurrence.Store
	users    UserDirectory
	registry *alerts.Registry
	identity map[int]struct{}
	pacer    Pacer
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithUserDirectory enables identity reconciliation against dir.
func WithUserDirectory(dir UserDirectory) Option {
	return func(e *Engine) { e.users = dir }
}

// WithRegistry supplies definition severities for legacy rows whose
// severity code cannot be mapped.
func WithRegistry(r *alerts.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithIdentityTypes replaces the alert types whose identity is reconciled.
func WithIdentityTypes(types []int) Option {
	return func(e *Engine) { e.identity = toSet(types) }
}

// WithPacer paces consecutive batches of Run and RunPrune.
func WithPacer(p Pacer) Option {
	return func(e *Engine) { e.pacer = p }
}

// WithLogger replaces the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine over source.
func NewEngine(source occurrence.Store, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		identity: toSet(alerts.IdentityTypes()),
		log:      logging.WithComponent("archive"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the store the engine reads from.
func (e *Engine) Source() occurrence.Store { return e.source }

// Result summarizes a multi-batch run.
type Result struct {
	Batches  int
	Migrated int
	// Cursor is the created_on of the newest occurrence processed.
	Cursor float64
}

// batch describes one processed batch.
type batch struct {
	count int
	limit int
	last  occurrence.Occurrence
}

// Archive moves one batch selected by sel from the source into dest and
// returns the number of occurrences moved.
func (e *Engine) Archive(ctx context.Context, sel Selector, dest occurrence.Store) (int, error) {
	b, err := e.archiveBatch(ctx, sel, dest)
	return b.count, err
}

// Prune deletes one batch selected by sel from the source without copying
// it and returns the number of occurrences deleted.
func (e *Engine) Prune(ctx context.Context, sel Selector) (int, error) {
	b, err := e.pruneBatch(ctx, sel)
	return b.count, err
}

// Run archives batches until one comes back short, ctx is canceled, or a
// batch fails.
func (e *Engine) Run(ctx context.Context, sel Selector, dest occurrence.Store) (Result, error) {
	return e.run(ctx, ModeArchive, sel, func(s Selector) (batch, error) {
		return e.archiveBatch(ctx, s, dest)
	})
}

// RunPrune prunes batches until one comes back short, ctx is canceled, or a
// batch fails.
func (e *Engine) RunPrune(ctx context.Context, sel Selector) (Result, error) {
	return e.run(ctx, ModePrune, sel, func(s Selector) (batch, error) {
		return e.pruneBatch(ctx, s)
	})
}

func (e *Engine) run(ctx context.Context, mode string, sel Selector, step func(Selector) (batch, error)) (Result, error) {
	start := time.Now()
	var res Result

	var err error
	for {
		if err = ctx.Err(); err != nil {
			break
		}
		if res.Batches > 0 && e.pacer != nil {
			if err = e.pacer.Wait(ctx); err != nil {
				break
			}
		}

		var b batch
		b, err = step(sel)
		if err != nil {
			break
		}
		if b.count == 0 {
			break
		}
		res.Batches++
		res.Migrated += b.count
		res.Cursor = b.last.CreatedOn
		sel = sel.Advance(b.last)

		if b.count < b.limit {
			break
		}
	}

	metrics.RecordArchiveRun(mode, time.Since(start), err)
	event := e.log.Info()
	if err != nil {
		event = e.log.Error().Err(err)
	}
	event.Str("mode", mode).
		Int("batches", res.Batches).
		Int("occurrences", res.Migrated).
		Dur("duration", time.Since(start)).
		Msg("Archive run finished")
	return res, err
}

func (e *Engine) selectBatch(ctx context.Context, sel Selector) ([]occurrence.Occurrence, occurrence.Filter, error) {
	filter, ok, err := sel.BatchFilter(ctx, e.source)
	if err != nil || !ok {
		return nil, filter, err
	}
	filter.OrderDesc = false
	list, err := e.source.SelectOccurrences(ctx, filter)
	if err != nil {
		return nil, filter, fmt.Errorf("failed to select archive batch: %w", err)
	}
	return list, filter, nil
}

func (e *Engine) archiveBatch(ctx context.Context, sel Selector, dest occurrence.Store) (b batch, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordArchiveBatch(ModeArchive, outcome, b.count)
	}()

	list, filter, err := e.selectBatch(ctx, sel)
	if err != nil || len(list) == 0 {
		return batch{limit: filter.Limit}, err
	}
	ids := occurrence.IDs(list)

	for i := range list {
		o := &list[i]
		if _, ok := e.identity[o.AlertID]; ok {
			if err := reconcileIdentity(ctx, e.users, o); err != nil {
				return batch{}, fmt.Errorf("failed to reconcile identity of occurrence %d: %w", o.ID, err)
			}
		}
		normalizeLegacy(o, e.registry)
	}

	meta, err := e.source.SelectMetadata(ctx, ids)
	if err != nil {
		return batch{}, fmt.Errorf("failed to select metadata for archive batch: %w", err)
	}

	if err := e.writeHealing(ctx, dest, occurrence.TableOccurrences, func() error {
		return dest.UpsertOccurrences(ctx, list)
	}); err != nil {
		return batch{}, fmt.Errorf("failed to copy occurrences: %w", err)
	}

	// Replace rather than append so a retried batch does not duplicate rows.
	if err := e.writeHealing(ctx, dest, occurrence.TableMetadata, func() error {
		if _, err := dest.DeleteMetadata(ctx, ids); err != nil {
			return err
		}
		return dest.InsertMetadata(ctx, meta)
	}); err != nil {
		return batch{}, fmt.Errorf("failed to copy metadata: %w", err)
	}

	if err := verifyCopy(ctx, dest, ids, int64(len(meta))); err != nil {
		return batch{}, err
	}

	if err := e.deleteFromSource(ctx, ids); err != nil {
		return batch{}, err
	}

	e.log.Debug().
		Int("occurrences", len(list)).
		Int("metadata", len(meta)).
		Float64("from", list[0].CreatedOn).
		Float64("to", list[len(list)-1].CreatedOn).
		Msg("Archive batch moved")
	return batch{count: len(list), limit: filter.Limit, last: list[len(list)-1]}, nil
}

func (e *Engine) pruneBatch(ctx context.Context, sel Selector) (b batch, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordArchiveBatch(ModePrune, outcome, b.count)
	}()

	list, filter, err := e.selectBatch(ctx, sel)
	if err != nil || len(list) == 0 {
		return batch{limit: filter.Limit}, err
	}
	if err := e.deleteFromSource(ctx, occurrence.IDs(list)); err != nil {
		return batch{}, err
	}
	return batch{count: len(list), limit: filter.Limit, last: list[len(list)-1]}, nil
}

// deleteFromSource removes metadata before the occurrences it references.
func (e *Engine) deleteFromSource(ctx context.Context, ids []int64) error {
	if _, err := e.source.DeleteMetadata(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete source metadata: %w", err)
	}
	if _, err := e.source.DeleteOccurrences(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete source occurrences: %w", err)
	}
	return nil
}

// writeHealing runs write. If it fails because a table is missing the table
// is created and write runs exactly once more.
func (e *Engine) writeHealing(ctx context.Context, dest occurrence.Store, table occurrence.Table, write func() error) error {
	err := write()
	if err == nil || !errors.Is(err, occurrence.ErrSchemaMissing) {
		return err
	}
	if missing, ok := occurrence.MissingTable(err); ok {
		table = missing
	}

	e.log.Warn().Str("table", string(table)).Msg("Destination table missing, creating it")
	if cerr := dest.CreateTable(ctx, table); cerr != nil {
		metrics.SchemaHeals.WithLabelValues(string(table), "failure").Inc()
		return &SchemaHealError{Table: table, Err: cerr}
	}

	if err := write(); err != nil {
		metrics.SchemaHeals.WithLabelValues(string(table), "failure").Inc()
		return &SchemaHealError{Table: table, Err: err}
	}
	metrics.SchemaHeals.WithLabelValues(string(table), "success").Inc()
	return nil
}

func verifyCopy(ctx context.Context, dest occurrence.Store, ids []int64, wantMeta int64) error {
	gotOcc, err := dest.CountOccurrences(ctx, occurrence.Filter{IDs: ids})
	if err != nil {
		return fmt.Errorf("failed to verify archived occurrences: %w", err)
	}
	gotMeta, err := dest.CountMetadata(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to verify archived metadata: %w", err)
	}
	if gotOcc != int64(len(ids)) || gotMeta != wantMeta {
		return &PartialBatchError{
			ExpectedOccurrences: int64(len(ids)),
			FoundOccurrences:    gotOcc,
			ExpectedMetadata:    wantMeta,
			FoundMetadata:       gotMeta,
		}
	}
	return nil
}

func toSet(types []int) map[int]struct{} {
	set := make(map[int]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
