// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/config"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/logging"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReloader_Apply(t *testing.T) {
	defer logging.SetLevel(logging.GetLevel())

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "alerts:\n  disabled: [1001]\n")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	d := dispatch.New(alerts.NewDefaultRegistry(), dispatch.WithDisabled(cfg.Alerts.Disabled))
	r := newReloader(path, cfg, d)

	// A set changed through the API survives an unrelated edit.
	d.SetDisabled([]int{1002})
	writeConfig(t, path, "alerts:\n  disabled: [1001]\nlogging:\n  level: debug\n")
	r.apply()
	if got := d.GetDisabled(); !slices.Equal(got, []int{1002}) {
		t.Errorf("disabled = %v, want [1002]", got)
	}
	if logging.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", logging.GetLevel())
	}

	writeConfig(t, path, "alerts:\n  disabled: [1003, 1000, 1003]\n")
	r.apply()
	if got := d.GetDisabled(); !slices.Equal(got, []int{1000, 1003}) {
		t.Errorf("disabled = %v, want [1000 1003]", got)
	}

	// An invalid file leaves everything in place.
	writeConfig(t, path, "logging: [unterminated")
	r.apply()
	if got := d.GetDisabled(); !slices.Equal(got, []int{1000, 1003}) {
		t.Errorf("disabled after invalid file = %v", got)
	}
}

func TestNormalizeTypes(t *testing.T) {
	if got := normalizeTypes([]int{5, 1, 5, 3}); !slices.Equal(got, []int{1, 3, 5}) {
		t.Errorf("normalizeTypes = %v", got)
	}
	if got := normalizeTypes(nil); len(got) != 0 {
		t.Errorf("normalizeTypes(nil) = %v", got)
	}
}
