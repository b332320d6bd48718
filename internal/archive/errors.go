// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"errors"
	"fmt"

	"github.com/tomtom215/auditrail/internal/occurrence"
)

var (
	// ErrSchemaHealFailed matches any *SchemaHealError.
	ErrSchemaHealFailed = errors.New("schema self-heal failed")

	// ErrPartialBatch matches any *PartialBatchError.
	ErrPartialBatch = errors.New("partial archive batch")
)

// SchemaHealError reports that a destination write still failed after its
// missing table was created. It also matches occurrence.ErrStoreUnavailable.
type SchemaHealError struct {
	Table occurrence.Table
	Err   error
}

func (e *SchemaHealError) Error() string {
	return fmt.Sprintf("schema self-heal failed for table %s: %v", e.Table, e.Err)
}

// Is makes errors.Is true for ErrSchemaHealFailed and
// occurrence.ErrStoreUnavailable.
func (e *SchemaHealError) Is(target error) bool {
	return target == ErrSchemaHealFailed || target == occurrence.ErrStoreUnavailable
}

func (e *SchemaHealError) Unwrap() error { return e.Err }

// PartialBatchError reports that the destination did not hold the whole
// batch after the copy. Nothing was deleted from the source.
type PartialBatchError struct {
	ExpectedOccurrences int64
	FoundOccurrences    int64
	ExpectedMetadata    int64
	FoundMetadata       int64
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("partial archive batch: destination has %d/%d occurrences and %d/%d metadata rows",
		e.FoundOccurrences, e.ExpectedOccurrences, e.FoundMetadata, e.ExpectedMetadata)
}

// Is makes errors.Is(err, ErrPartialBatch) true.
func (e *PartialBatchError) Is(target error) bool {
	return target == ErrPartialBatch
}
