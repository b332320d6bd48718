// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"context"
	"fmt"

	"github.com/tomtom215/auditrail/internal/occurrence"
)

// DefaultBatchSize is used when a selector's BatchSize is not positive.
const DefaultBatchSize = 500

// Selector chooses the next batch of occurrences to move or delete. Batches
// are always taken oldest first.
type Selector interface {
	// BatchFilter returns the filter for the next batch. ok is false when
	// nothing is eligible.
	BatchFilter(ctx context.Context, source occurrence.Store) (filter occurrence.Filter, ok bool, err error)

	// Advance returns the selector to use after a batch whose newest
	// occurrence is last.
	Advance(last occurrence.Occurrence) Selector
}

func batchSize(n int) int {
	if n <= 0 {
		return DefaultBatchSize
	}
	return n
}

// ByAge selects occurrences created before CreatedBefore.
type ByAge struct {
	CreatedBefore float64
	BatchSize     int
	SiteID        *int64
}

// BatchFilter implements Selector.
func (s ByAge) BatchFilter(context.Context, occurrence.Store) (occurrence.Filter, bool, error) {
	return occurrence.Filter{
		SiteID:        s.SiteID,
		CreatedBefore: occurrence.Float64(s.CreatedBefore),
		Limit:         batchSize(s.BatchSize),
	}, true, nil
}

// Advance implements Selector.
func (s ByAge) Advance(occurrence.Occurrence) Selector { return s }

// ByRetention keeps the Keep most recent occurrences and selects the rest.
type ByRetention struct {
	Keep      int
	BatchSize int
	SiteID    *int64
}

// BatchFilter implements Selector.
func (s ByRetention) BatchFilter(ctx context.Context, source occurrence.Store) (occurrence.Filter, bool, error) {
	if s.Keep < 0 {
		return occurrence.Filter{}, false, fmt.Errorf("retention keep count must not be negative: %d", s.Keep)
	}
	total, err := source.CountOccurrences(ctx, occurrence.Filter{SiteID: s.SiteID})
	if err != nil {
		return occurrence.Filter{}, false, fmt.Errorf("failed to count source occurrences: %w", err)
	}
	excess := total - int64(s.Keep)
	if excess <= 0 {
		return occurrence.Filter{}, false, nil
	}
	return occurrence.Filter{
		SiteID: s.SiteID,
		Limit:  int(min(excess, int64(batchSize(s.BatchSize)))),
	}, true, nil
}

// Advance implements Selector.
func (s ByRetention) Advance(occurrence.Occurrence) Selector { return s }

// ByCursor resumes an incremental run from the created_on of the last
// migrated occurrence. Before, when positive, bounds the run.
type ByCursor struct {
	LastMigrated float64
	Before       float64
	BatchSize    int
	SiteID       *int64
}

// BatchFilter implements Selector.
func (s ByCursor) BatchFilter(context.Context, occurrence.Store) (occurrence.Filter, bool, error) {
	f := occurrence.Filter{
		SiteID:       s.SiteID,
		CreatedAfter: occurrence.Float64(s.LastMigrated),
		Limit:        batchSize(s.BatchSize),
	}
	if s.Before > 0 {
		if s.Before <= s.LastMigrated {
			return f, false, nil
		}
		f.CreatedBefore = occurrence.Float64(s.Before)
	}
	return f, true, nil
}

// Advance implements Selector. Occurrences sharing the cursor timestamp are
// picked up again only if they are still in the source.
func (s ByCursor) Advance(last occurrence.Occurrence) Selector {
	if last.CreatedOn > s.LastMigrated {
		s.LastMigrated = last.CreatedOn
	}
	return s
}
