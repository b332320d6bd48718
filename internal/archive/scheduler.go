// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/metrics"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// SchedulerConfig configures periodic archive or prune runs.
type SchedulerConfig struct {
	Mode     string
	Interval time.Duration

	// RetentionDays selects occurrences older than this many days.
	// Ignored when KeepCount is positive.
	RetentionDays int
	// KeepCount keeps this many most recent occurrences.
	KeepCount int
	BatchSize int
	SiteID    *int64

	// RunOnStart runs once immediately instead of waiting an interval.
	RunOnStart bool

	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration

	// OnRun is called after each scheduled run that moved at least one
	// occurrence.
	OnRun func(ctx context.Context, res Result)
}

// Scheduler runs the engine on an interval. It implements suture.Service.
type Scheduler struct {
	engine  *Engine
	dest    occurrence.Store
	cfg     SchedulerConfig
	breaker *gobreaker.CircuitBreaker[Result]
	now     func() time.Time
	log     zerolog.Logger
}

// NewScheduler creates a scheduler. dest may be nil in prune mode.
func NewScheduler(engine *Engine, dest occurrence.Store, cfg SchedulerConfig) (*Scheduler, error) {
	switch cfg.Mode {
	case ModeArchive:
		if dest == nil {
			return nil, errors.New("archive mode requires a destination store")
		}
	case ModePrune:
	default:
		return nil, fmt.Errorf("unknown archive mode %q", cfg.Mode)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("archive interval must be positive, got %s", cfg.Interval)
	}
	if cfg.KeepCount <= 0 && cfg.RetentionDays <= 0 {
		return nil, errors.New("archive retention requires retention_days or keep_count")
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 4 * cfg.Interval
	}

	s := &Scheduler{
		engine: engine,
		dest:   dest,
		cfg:    cfg,
		now:    time.Now,
		log:    logging.WithComponent("archive-scheduler"),
	}
	s.breaker = newBreaker("archive-"+cfg.Mode, cfg.BreakerFailureThreshold, cfg.BreakerTimeout, s.log)
	return s, nil
}

func newBreaker(name string, threshold uint32, timeout time.Duration, log zerolog.Logger) *gobreaker.CircuitBreaker[Result] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Archive circuit breaker state changed")
		},
	})
}

// Selector returns the selector for a run starting now.
func (s *Scheduler) Selector() Selector {
	if s.cfg.KeepCount > 0 {
		return ByRetention{Keep: s.cfg.KeepCount, BatchSize: s.cfg.BatchSize, SiteID: s.cfg.SiteID}
	}
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	return ByAge{CreatedBefore: occurrence.Timestamp(cutoff), BatchSize: s.cfg.BatchSize, SiteID: s.cfg.SiteID}
}

// RunOnce performs one run through the circuit breaker. While the breaker
// is open it returns gobreaker.ErrOpenState without touching the stores.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	return s.breaker.Execute(func() (Result, error) {
		if s.cfg.Mode == ModePrune {
			return s.engine.RunPrune(ctx, s.Selector())
		}
		return s.engine.Run(ctx, s.Selector(), s.dest)
	})
}

// BreakerState returns the circuit breaker state.
func (s *Scheduler) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.log.Info().
		Str("mode", s.cfg.Mode).
		Dur("interval", s.cfg.Interval).
		Int("retention_days", s.cfg.RetentionDays).
		Int("keep_count", s.cfg.KeepCount).
		Msg("Archive scheduler started")

	if s.cfg.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	switch {
	case err == nil:
		if res.Migrated > 0 && s.cfg.OnRun != nil {
			s.cfg.OnRun(ctx, res)
		}
	case errors.Is(err, context.Canceled):
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.log.Warn().Str("mode", s.cfg.Mode).Msg("Archive run skipped, circuit breaker open")
	default:
		// Failed batches are retried on the next tick.
		s.log.Error().Err(err).Str("mode", s.cfg.Mode).Msg("Archive run failed")
	}
}

// String implements fmt.Stringer for suture logs.
func (s *Scheduler) String() string {
	return "archive-scheduler"
}
