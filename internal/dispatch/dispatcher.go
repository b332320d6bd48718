// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package dispatch turns alert triggers into events delivered to every
// registered Logger.
//
// A trigger is looked up in the alert registry, dropped when its type is
// disabled, enriched with ambient request details, stamped once, and handed
// to each logger in registration order. Logger failures, including panics,
// are reported to the error handler and never returned to the caller of
// Trigger.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/metrics"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// ErrorHandler receives sink failures out of band.
type ErrorHandler func(ctx context.Context, failure *SinkFailure)

type namedLogger struct {
	name   string
	logger Logger
}

// Dispatcher fans triggered alerts out to loggers.
type Dispatcher struct {
	registry *alerts.Registry

	mu      sync.RWMutex
	loggers []namedLogger

	disabled atomic.Pointer[map[int]struct{}]

	onError ErrorHandler
	now     func() time.Time
	siteID  int64
	log     zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger registers a logger under name.
func WithLogger(name string, l Logger) Option {
	return func(d *Dispatcher) {
		d.loggers = append(d.loggers, namedLogger{name: name, logger: l})
	}
}

// WithErrorHandler replaces the default sink failure handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.onError = h
		}
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithSiteID sets the site id added to events that do not carry one.
func WithSiteID(id int64) Option {
	return func(d *Dispatcher) { d.siteID = id }
}

// WithDisabled sets the initial disabled set.
func WithDisabled(types []int) Option {
	return func(d *Dispatcher) { d.SetDisabled(types) }
}

// New creates a dispatcher over registry.
func New(registry *alerts.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		now:      time.Now,
		log:      logging.WithComponent("dispatch"),
	}
	d.onError = d.logFailure
	empty := map[int]struct{}{}
	d.disabled.Store(&empty)

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the alert registry the dispatcher resolves types against.
func (d *Dispatcher) Registry() *alerts.Registry { return d.registry }

// AddLogger registers a logger. Loggers are invoked in registration order.
func (d *Dispatcher) AddLogger(name string, l Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loggers = append(d.loggers, namedLogger{name: name, logger: l})
}

// LoggerNames returns the registered logger names in invocation order.
func (d *Dispatcher) LoggerNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.loggers))
	for i, l := range d.loggers {
		names[i] = l.name
	}
	return names
}

// Report describes the outcome of one dispatch.
type Report struct {
	AlertType int
	Disabled  bool
	Delivered []string
	Failures  []*SinkFailure
}

// Err joins the sink failures, or returns nil when every logger succeeded.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// StoreUnavailable reports whether any logger failed because its backing
// store could not be reached.
func (r *Report) StoreUnavailable() bool {
	for _, f := range r.Failures {
		if errors.Is(f.Err, occurrence.ErrStoreUnavailable) {
			return true
		}
	}
	return false
}

// Trigger raises an alert. It returns an *UnknownAlertTypeError for an
// unregistered type and nil otherwise, including when loggers fail.
func (d *Dispatcher) Trigger(ctx context.Context, alertType int, data map[string]any) error {
	_, err := d.Dispatch(ctx, alertType, data)
	return err
}

// TriggerIf raises an alert only when cond, evaluated now, returns true.
func (d *Dispatcher) TriggerIf(ctx context.Context, alertType int, data map[string]any, cond func(*Dispatcher) bool) error {
	if cond != nil && !cond(d) {
		return nil
	}
	return d.Trigger(ctx, alertType, data)
}

// Dispatch is Trigger with a per-logger report. Sink failures are still
// delivered to the error handler.
func (d *Dispatcher) Dispatch(ctx context.Context, alertType int, data map[string]any) (Report, error) {
	report := Report{AlertType: alertType}

	def, ok := d.registry.Get(alertType)
	if !ok {
		metrics.AlertsTriggered.WithLabelValues("unknown").Inc()
		logging.Ctx(ctx).Warn().Int("alert_type", alertType).Msg("Trigger for unknown alert type ignored")
		return report, &UnknownAlertTypeError{Type: alertType}
	}

	if d.isDisabled(alertType) {
		metrics.AlertsTriggered.WithLabelValues("disabled").Inc()
		report.Disabled = true
		return report, nil
	}

	record := d.buildRecord(ctx, &def, data)

	d.mu.RLock()
	loggers := slices.Clone(d.loggers)
	d.mu.RUnlock()

	for _, nl := range loggers {
		if failure := d.invoke(ctx, nl, &def, record); failure != nil {
			report.Failures = append(report.Failures, failure)
			d.onError(ctx, failure)
			continue
		}
		report.Delivered = append(report.Delivered, nl.name)
	}

	metrics.AlertsTriggered.WithLabelValues("dispatched").Inc()
	return report, nil
}

// buildRecord merges caller data with definition defaults and ambient
// request details. Caller-supplied keys always win.
func (d *Dispatcher) buildRecord(ctx context.Context, def *alerts.Definition, data map[string]any) map[string]any {
	record := make(map[string]any, len(data)+6)
	maps.Copy(record, data)

	setDefault(record, KeyObject, def.Object)
	setDefault(record, KeyEventType, def.EventType)

	if info, ok := RequestInfoFromContext(ctx); ok {
		setDefault(record, KeyClientIP, info.ClientIP)
		setDefault(record, KeyUserAgent, info.UserAgent)
	}
	if d.siteID != 0 {
		if _, ok := record[KeySiteID]; !ok {
			record[KeySiteID] = d.siteID
		}
	}
	if _, ok := record[KeyTimestamp]; !ok {
		record[KeyTimestamp] = occurrence.Timestamp(d.now())
	}
	return record
}

func setDefault(record map[string]any, key, value string) {
	if value == "" {
		return
	}
	if _, ok := record[key]; !ok {
		record[key] = value
	}
}

// invoke calls one logger with its own copy of the record.
func (d *Dispatcher) invoke(ctx context.Context, nl namedLogger, def *alerts.Definition, record map[string]any) (failure *SinkFailure) {
	start := time.Now()
	result := "success"

	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			failure = &SinkFailure{
				Sink:      nl.name,
				AlertType: def.Type,
				Err:       fmt.Errorf("logger panicked: %v", r),
				Panic:     r,
			}
		}
		metrics.RecordSink(nl.name, result, time.Since(start))
	}()

	if err := nl.logger.Log(ctx, def.Type, int(def.Severity), def.Message, maps.Clone(record)); err != nil {
		result = "error"
		return &SinkFailure{Sink: nl.name, AlertType: def.Type, Err: err}
	}
	return nil
}

func (d *Dispatcher) logFailure(ctx context.Context, failure *SinkFailure) {
	event := logging.Ctx(ctx).Error().
		Err(failure.Err).
		Str("component", "dispatch").
		Str("sink", failure.Sink).
		Int("alert_type", failure.AlertType)
	if failure.Panic != nil {
		event = event.Bool("panic", true)
	}
	event.Msg("Logger failed to record alert")
}

// IsEnabled reports whether alertType is registered and not disabled.
func (d *Dispatcher) IsEnabled(alertType int) bool {
	if _, ok := d.registry.Get(alertType); !ok {
		return false
	}
	return !d.isDisabled(alertType)
}

func (d *Dispatcher) isDisabled(alertType int) bool {
	_, off := (*d.disabled.Load())[alertType]
	return off
}

// SetDisabled replaces the disabled set. Triggers already in progress keep
// the set they started with.
func (d *Dispatcher) SetDisabled(types []int) {
	next := make(map[int]struct{}, len(types))
	for _, t := range types {
		next[t] = struct{}{}
	}
	d.disabled.Store(&next)
	d.log.Info().Ints("disabled", d.GetDisabled()).Msg("Disabled alert set updated")
}

// GetDisabled returns the disabled types in ascending order.
func (d *Dispatcher) GetDisabled() []int {
	current := *d.disabled.Load()
	out := make([]int, 0, len(current))
	for t := range current {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
