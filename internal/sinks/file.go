// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends each event as one JSON line.
type FileLogger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// NewWriterLogger writes JSON lines to w.
func NewWriterLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w, now: time.Now}
}

// NewFileLogger opens path for appending, creating it and its directory when
// needed. An empty path or "-" writes to stdout.
func NewFileLogger(path string) (*FileLogger, error) {
	if path == "" || path == "-" {
		return NewWriterLogger(os.Stdout), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	l := NewWriterLogger(f)
	l.closer = f
	return l, nil
}

// Log implements dispatch.Logger.
func (l *FileLogger) Log(ctx context.Context, alertType, severity int, message string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := NewEvent(alertType, severity, message, data, l.now())
	line, err := event.Marshal()
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the logger opened one.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
