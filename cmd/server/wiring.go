// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/archive"
	"github.com/tomtom215/auditrail/internal/config"
	"github.com/tomtom215/auditrail/internal/database"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/occurrence"
	"github.com/tomtom215/auditrail/internal/sinks"
)

func storeConfig(c config.DatabaseConfig) database.Config {
	return database.Config{
		Dialect:         occurrence.Dialect(c.Driver),
		DSN:             c.DSN,
		Tables:          occurrence.TableNames{Occurrences: c.OccurrenceTable, Metadata: c.MetadataTable},
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		CreateSchema:    c.CreateSchema,
	}
}

// addSinks registers the enabled sinks on d. The returned func closes the
// sinks that hold resources.
func addSinks(d *dispatch.Dispatcher, cfg *config.Config, live *database.DB) (func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			database.CloseWithLog(closers[i], "sink")
		}
	}

	if cfg.Sinks.Database {
		d.AddLogger("database", sinks.NewDatabaseLogger(live.Store(),
			sinks.WithSiteID(cfg.Alerts.SiteID),
			sinks.WithStoreName("live"),
		))
	}
	if cfg.Sinks.Console {
		d.AddLogger("console", sinks.NewConsoleLogger())
	}
	if cfg.Sinks.File.Enabled {
		fl, err := sinks.NewFileLogger(cfg.Sinks.File.Path)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, fl)
		d.AddLogger("file", fl)
	}
	if cfg.Sinks.NATS.Enabled {
		pub, err := sinks.NewNATSPublisher(sinks.NATSConfig{
			URL:           cfg.Sinks.NATS.URL,
			MaxReconnects: cfg.Sinks.NATS.MaxReconnects,
			ReconnectWait: cfg.Sinks.NATS.ReconnectWait,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		pl := sinks.NewPublisherLogger(pub, cfg.Sinks.NATS.Topic)
		closers = append(closers, pl)
		d.AddLogger("nats", pl)
	}

	logging.Info().Strs("sinks", d.LoggerNames()).Msg("Sinks registered")
	return closeAll, nil
}

// newArchiveScheduler builds the engine and scheduler. archiveDB is nil in
// prune mode.
func newArchiveScheduler(cfg *config.Config, live, archiveDB *database.DB, d *dispatch.Dispatcher) (*archive.Scheduler, error) {
	engine := archive.NewEngine(live.Store(),
		archive.WithRegistry(d.Registry()),
		archive.WithPacer(archive.NewRatePacer(cfg.Archive.BatchesPerSecond)),
	)

	var dest occurrence.Store
	if archiveDB != nil {
		dest = archiveDB.Store()
	}

	var siteID *int64
	if cfg.Alerts.SiteID != 0 {
		id := cfg.Alerts.SiteID
		siteID = &id
	}

	return archive.NewScheduler(engine, dest, archive.SchedulerConfig{
		Mode:                    cfg.Archive.Mode,
		Interval:                cfg.Archive.Interval,
		RetentionDays:           cfg.Archive.RetentionDays,
		KeepCount:               cfg.Archive.KeepCount,
		BatchSize:               cfg.Archive.BatchSize,
		SiteID:                  siteID,
		RunOnStart:              cfg.Archive.RunOnStart,
		BreakerFailureThreshold: cfg.Archive.BreakerFailureThreshold,
		BreakerTimeout:          cfg.Archive.BreakerTimeout,
		OnRun:                   auditArchiveRun(d, cfg.Archive.Mode),
	})
}

// auditArchiveRun records each successful archive run as an occurrence.
func auditArchiveRun(d *dispatch.Dispatcher, mode string) func(context.Context, archive.Result) {
	return func(ctx context.Context, res archive.Result) {
		err := d.Trigger(ctx, alerts.TypeArchiveCompleted, map[string]any{
			"Count":   res.Migrated,
			"Message": fmt.Sprintf("Mode: %s, batches: %d", mode, res.Batches),
		})
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to record archive run")
		}
	}
}
