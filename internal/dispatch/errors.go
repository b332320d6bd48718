// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAlertType matches any *UnknownAlertTypeError.
	ErrUnknownAlertType = errors.New("unknown alert type")

	// ErrSinkFailure matches any *SinkFailure.
	ErrSinkFailure = errors.New("sink failure")
)

// UnknownAlertTypeError is returned when a trigger names an unregistered type.
type UnknownAlertTypeError struct {
	Type int
}

func (e *UnknownAlertTypeError) Error() string {
	return fmt.Sprintf("unknown alert type %d", e.Type)
}

// Is makes errors.Is(err, ErrUnknownAlertType) true.
func (e *UnknownAlertTypeError) Is(target error) bool {
	return target == ErrUnknownAlertType
}

// SinkFailure records one logger that failed to accept an event.
type SinkFailure struct {
	Sink      string
	AlertType int
	Err       error

	// Panic holds the recovered value when the logger panicked.
	Panic any
}

func (e *SinkFailure) Error() string {
	return fmt.Sprintf("sink %s failed for alert type %d: %v", e.Sink, e.AlertType, e.Err)
}

// Is makes errors.Is(err, ErrSinkFailure) true.
func (e *SinkFailure) Is(target error) bool {
	return target == ErrSinkFailure
}

func (e *SinkFailure) Unwrap() error { return e.Err }
