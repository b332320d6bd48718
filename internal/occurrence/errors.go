// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable marks errors where the backing store could not be
	// reached or could not complete the operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSchemaMissing matches any *SchemaMissingError.
	ErrSchemaMissing = errors.New("schema missing")

	// ErrNotFound is returned when a single occurrence lookup finds nothing.
	ErrNotFound = errors.New("occurrence not found")
)

// SchemaMissingError reports that a table an operation needs does not exist.
type SchemaMissingError struct {
	Table Table
	Err   error
}

func (e *SchemaMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table %s does not exist: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %s does not exist", e.Table)
}

// Is makes errors.Is(err, ErrSchemaMissing) true for any SchemaMissingError.
func (e *SchemaMissingError) Is(target error) bool {
	return target == ErrSchemaMissing
}

func (e *SchemaMissingError) Unwrap() error { return e.Err }

// MissingTable returns the table named by a SchemaMissingError in err's chain.
func MissingTable(err error) (Table, bool) {
	var sm *SchemaMissingError
	if errors.As(err, &sm) {
		return sm.Table, true
	}
	return "", false
}

// Unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds.
func Unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
