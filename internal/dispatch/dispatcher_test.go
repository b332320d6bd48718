// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// recordingLogger captures every call it receives.
type recordingLogger struct {
	mu    sync.Mutex
	calls []loggedCall
	err   error
}

type loggedCall struct {
	alertType int
	severity  int
	message   string
	data      map[string]any
}

func (r *recordingLogger) Log(_ context.Context, alertType, severity int, message string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, loggedCall{alertType, severity, message, data})
	return r.err
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testRegistry(t *testing.T) *alerts.Registry {
	t.Helper()

	r := alerts.NewRegistry()
	err := r.Register(
		alerts.Definition{
			Type: 1001, Severity: alerts.SeverityLow, Category: "Users",
			Message: "User %Username% logged in from %ClientIP%", Object: "user", EventType: "login",
		},
		alerts.Definition{Type: 2000, Severity: alerts.SeverityMedium, Category: "Content", Message: "Created %PostTitle%"},
	)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

var fixedClock = func() time.Time { return time.Unix(1700000000, 500000000) }

func TestTrigger_DeliversMergedRecord(t *testing.T) {
	t.Parallel()

	sink := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("rec", sink), WithClock(fixedClock), WithSiteID(3))

	ctx := WithRequestInfo(context.Background(), RequestInfo{ClientIP: "192.0.2.1", UserAgent: "curl/8"})
	if err := d.Trigger(ctx, 1001, map[string]any{"Username": "alice", "ClientIP": "10.0.0.5"}); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	if sink.count() != 1 {
		t.Fatalf("expected 1 call, got %d", sink.count())
	}
	call := sink.calls[0]
	if call.alertType != 1001 || call.severity != int(alerts.SeverityLow) {
		t.Errorf("call = %d/%d", call.alertType, call.severity)
	}
	if call.message != "User %Username% logged in from %ClientIP%" {
		t.Errorf("message = %q", call.message)
	}

	want := map[string]any{
		"Username":   "alice",
		KeyClientIP:  "10.0.0.5", // caller value wins over the request
		KeyUserAgent: "curl/8",   // ambient value fills the gap
		KeyObject:    "user",
		KeyEventType: "login",
		KeySiteID:    int64(3),
		KeyTimestamp: 1700000000.5,
	}
	for k, v := range want {
		if call.data[k] != v {
			t.Errorf("data[%s] = %#v, want %#v", k, call.data[k], v)
		}
	}
}

func TestTrigger_UnknownType(t *testing.T) {
	t.Parallel()

	sink := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("rec", sink))

	err := d.Trigger(context.Background(), 9999, nil)
	if !errors.Is(err, ErrUnknownAlertType) {
		t.Fatalf("expected ErrUnknownAlertType, got %v", err)
	}
	var unknown *UnknownAlertTypeError
	if !errors.As(err, &unknown) || unknown.Type != 9999 {
		t.Errorf("expected *UnknownAlertTypeError for 9999, got %v", err)
	}
	if sink.count() != 0 {
		t.Errorf("expected zero logger invocations, got %d", sink.count())
	}
	if d.IsEnabled(9999) {
		t.Error("unknown type must not be enabled")
	}
}

func TestTrigger_DisabledIsNoOp(t *testing.T) {
	t.Parallel()

	sink := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("rec", sink), WithDisabled([]int{1001}))

	for i := 0; i < 3; i++ {
		if err := d.Trigger(context.Background(), 1001, map[string]any{"Username": "alice"}); err != nil {
			t.Fatalf("Trigger on disabled type returned %v", err)
		}
	}
	if sink.count() != 0 {
		t.Errorf("expected zero logger invocations, got %d", sink.count())
	}

	report, err := d.Dispatch(context.Background(), 1001, nil)
	if err != nil || !report.Disabled {
		t.Errorf("Dispatch = %+v, %v", report, err)
	}

	d.SetDisabled(nil)
	if err := d.Trigger(context.Background(), 1001, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if sink.count() != 1 {
		t.Errorf("re-enabled type should reach the logger, got %d calls", sink.count())
	}
}

func TestTrigger_FanOutIsolation(t *testing.T) {
	t.Parallel()

	first := &recordingLogger{}
	failing := &recordingLogger{err: errors.New("disk full")}
	panicking := LoggerFunc(func(context.Context, int, int, string, map[string]any) error {
		panic("boom")
	})
	last := &recordingLogger{}

	var mu sync.Mutex
	var failures []*SinkFailure
	d := New(testRegistry(t),
		WithLogger("first", first),
		WithLogger("failing", failing),
		WithLogger("panicking", panicking),
		WithLogger("last", last),
		WithErrorHandler(func(_ context.Context, f *SinkFailure) {
			mu.Lock()
			failures = append(failures, f)
			mu.Unlock()
		}),
	)

	if err := d.Trigger(context.Background(), 2000, map[string]any{"PostTitle": "Hello"}); err != nil {
		t.Fatalf("Trigger must not surface sink failures, got %v", err)
	}

	if first.count() != 1 || failing.count() != 1 || last.count() != 1 {
		t.Errorf("calls first=%d failing=%d last=%d, want 1 each", first.count(), failing.count(), last.count())
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures reported, got %d", len(failures))
	}
	if failures[0].Sink != "failing" || !errors.Is(failures[0], ErrSinkFailure) {
		t.Errorf("failure 0 = %v", failures[0])
	}
	if failures[1].Sink != "panicking" || failures[1].Panic != "boom" {
		t.Errorf("failure 1 = %+v", failures[1])
	}
}

func TestDispatch_Report(t *testing.T) {
	t.Parallel()

	unavailable := &recordingLogger{err: fmt.Errorf("insert: %w", occurrence.ErrStoreUnavailable)}
	ok := &recordingLogger{}
	d := New(testRegistry(t),
		WithLogger("db", unavailable),
		WithLogger("file", ok),
		WithErrorHandler(func(context.Context, *SinkFailure) {}),
	)

	report, err := d.Dispatch(context.Background(), 2000, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(report.Delivered) != 1 || report.Delivered[0] != "file" {
		t.Errorf("Delivered = %v", report.Delivered)
	}
	if !report.StoreUnavailable() {
		t.Error("expected StoreUnavailable to be reported")
	}
	if !errors.Is(report.Err(), occurrence.ErrStoreUnavailable) {
		t.Errorf("Report.Err() = %v", report.Err())
	}
}

func TestTrigger_LoggersReceiveIndependentCopies(t *testing.T) {
	t.Parallel()

	mutator := LoggerFunc(func(_ context.Context, _, _ int, _ string, data map[string]any) error {
		data["Username"] = "mallory"
		delete(data, KeyTimestamp)
		return nil
	})
	after := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("mutator", mutator), WithLogger("after", after))

	input := map[string]any{"Username": "alice"}
	_ = d.Trigger(context.Background(), 1001, input)

	if after.calls[0].data["Username"] != "alice" {
		t.Errorf("second logger saw a mutated record: %v", after.calls[0].data)
	}
	if _, ok := after.calls[0].data[KeyTimestamp]; !ok {
		t.Error("second logger lost the timestamp")
	}
	if len(input) != 1 {
		t.Errorf("caller data was modified: %v", input)
	}
}

func TestTrigger_SharedTimestampAcrossLoggers(t *testing.T) {
	t.Parallel()

	a, b := &recordingLogger{}, &recordingLogger{}
	ticks := 0
	clock := func() time.Time {
		ticks++
		return time.Unix(int64(1000+ticks), 0)
	}
	d := New(testRegistry(t), WithLogger("a", a), WithLogger("b", b), WithClock(clock))

	_ = d.Trigger(context.Background(), 2000, nil)
	if a.calls[0].data[KeyTimestamp] != b.calls[0].data[KeyTimestamp] {
		t.Errorf("loggers got different timestamps: %v vs %v",
			a.calls[0].data[KeyTimestamp], b.calls[0].data[KeyTimestamp])
	}
}

func TestTriggerIf(t *testing.T) {
	t.Parallel()

	sink := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("rec", sink))

	_ = d.TriggerIf(context.Background(), 2000, nil, func(*Dispatcher) bool { return false })
	if sink.count() != 0 {
		t.Error("false condition must suppress the trigger")
	}
	_ = d.TriggerIf(context.Background(), 2000, nil, func(dd *Dispatcher) bool { return dd.IsEnabled(1001) })
	if sink.count() != 1 {
		t.Error("true condition must trigger")
	}
}

func TestDisabledSet(t *testing.T) {
	t.Parallel()

	d := New(testRegistry(t))
	d.SetDisabled([]int{2000, 1001, 2000})

	got := d.GetDisabled()
	if len(got) != 2 || got[0] != 1001 || got[1] != 2000 {
		t.Errorf("GetDisabled = %v, want [1001 2000]", got)
	}
	if d.IsEnabled(1001) {
		t.Error("1001 should be disabled")
	}
}

func TestConcurrentTriggerAndSetDisabled(t *testing.T) {
	t.Parallel()

	sink := &recordingLogger{}
	d := New(testRegistry(t), WithLogger("rec", sink))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = d.Trigger(context.Background(), 2000, map[string]any{"n": j})
			}
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				d.SetDisabled([]int{1001})
			} else {
				d.SetDisabled(nil)
			}
		}(i)
	}
	wg.Wait()

	if sink.count() != 8*50 {
		t.Errorf("expected %d deliveries, got %d", 8*50, sink.count())
	}
}

func TestAddLoggerOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string) Logger {
		return LoggerFunc(func(context.Context, int, int, string, map[string]any) error {
			order = append(order, name)
			return nil
		})
	}
	d := New(testRegistry(t), WithLogger("a", mk("a")))
	d.AddLogger("b", mk("b"))
	d.AddLogger("c", mk("c"))

	_ = d.Trigger(context.Background(), 2000, nil)
	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("invocation order = %v", order)
	}
	if fmt.Sprint(d.LoggerNames()) != "[a b c]" {
		t.Errorf("LoggerNames = %v", d.LoggerNames())
	}
}
