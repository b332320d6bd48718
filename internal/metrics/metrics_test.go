// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSink(t *testing.T) {
	before := testutil.ToFloat64(SinkInvocations.WithLabelValues("metrics-test", "error"))
	RecordSink("metrics-test", "error", 3*time.Millisecond)
	after := testutil.ToFloat64(SinkInvocations.WithLabelValues("metrics-test", "error"))

	if after-before != 1 {
		t.Errorf("expected sink invocation counter to increase by 1, got %v", after-before)
	}
}

func TestRecordArchiveBatch(t *testing.T) {
	before := testutil.ToFloat64(ArchiveOccurrences.WithLabelValues("metrics-test"))
	RecordArchiveBatch("metrics-test", "success", 25)
	RecordArchiveBatch("metrics-test", "error", 0)
	after := testutil.ToFloat64(ArchiveOccurrences.WithLabelValues("metrics-test"))

	if after-before != 25 {
		t.Errorf("expected 25 migrated occurrences recorded, got %v", after-before)
	}
	if got := testutil.ToFloat64(ArchiveBatches.WithLabelValues("metrics-test", "error")); got < 1 {
		t.Errorf("expected error batch to be counted, got %v", got)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	RecordStoreOperation("metrics-test", "insert", time.Millisecond, errors.New("no such table: metadata"))

	got := testutil.ToFloat64(StoreOperationErrors.WithLabelValues("metrics-test", "insert", "schema_missing"))
	if got < 1 {
		t.Errorf("expected schema_missing error to be counted, got %v", got)
	}
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{errors.New("Catalog Error: Table with name x does not exist!"), "schema_missing"},
		{errors.New("failed to insert: store unavailable: dial tcp"), "unavailable"},
		{errors.New("context deadline exceeded"), "canceled"},
		{errors.New("duplicate key"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
