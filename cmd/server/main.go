// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/api"
	"github.com/tomtom215/auditrail/internal/auth"
	"github.com/tomtom215/auditrail/internal/config"
	"github.com/tomtom215/auditrail/internal/database"
	"github.com/tomtom215/auditrail/internal/dispatch"
	"github.com/tomtom215/auditrail/internal/format"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/supervisor"
	"github.com/tomtom215/auditrail/internal/supervisor/services"
)

func main() {
	configPath := config.FindConfigFile()
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Str("config_file", configPath).Msg("Starting Auditrail")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live, err := database.Open(ctx, storeConfig(cfg.Database))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open live store")
	}
	defer database.CloseWithLog(live, "live store")

	var archiveDB *database.DB
	if cfg.Archive.Enabled && cfg.Archive.Mode == "archive" {
		// The archive tables are created on first write.
		archiveDB, err = database.Open(ctx, storeConfig(cfg.Archive.Database))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open archive store")
		}
		defer database.CloseWithLog(archiveDB, "archive store")
	}

	registry := alerts.NewDefaultRegistry()
	registry.Freeze()

	dispatcher := dispatch.New(registry,
		dispatch.WithSiteID(cfg.Alerts.SiteID),
		dispatch.WithDisabled(cfg.Alerts.Disabled),
	)
	closeSinks, err := addSinks(dispatcher, cfg, live)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize sinks")
	}
	defer closeSinks()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.Timeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Archive.Enabled {
		scheduler, err := newArchiveScheduler(cfg, live, archiveDB, dispatcher)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create archive scheduler")
		}
		tree.AddDataService(scheduler)
	} else {
		logging.Info().Msg("Archiving disabled (ARCHIVE_ENABLED=false)")
	}

	if configPath != "" {
		reload := newReloader(configPath, cfg, dispatcher)
		tree.AddControlService(services.NewConfigWatchService(
			func() services.Watcher { return config.FileWatcher(configPath) },
			reload.apply,
		))
	}

	handler, err := newRouter(cfg, dispatcher, live, archiveDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build HTTP router")
	}
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	logging.Info().Msg("Auditrail stopped")
}

func newRouter(cfg *config.Config, dispatcher *dispatch.Dispatcher, live, archiveDB *database.DB) (http.Handler, error) {
	maxLen := cfg.Render.MaxMetaValueLength
	deps := api.Deps{
		Dispatcher: dispatcher,
		Live:       live.Store(),
		Formatter:  format.New(),
		Render: api.RenderOptions{
			DefaultFormat:      cfg.Render.DefaultFormat,
			MaxMetaValueLength: &maxLen,
		},
		Checks: []api.ReadinessCheck{{Name: "live", Check: live.Ping}},
	}
	if archiveDB != nil {
		deps.Archive = archiveDB.Store()
		deps.Checks = append(deps.Checks, api.ReadinessCheck{Name: "archive", Check: archiveDB.Ping})
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}
	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is disabled (DISABLE_RATE_LIMIT=true)")
	}

	mw := api.DefaultMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.RateLimitRequests = cfg.Server.RateLimitReqs
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	mw.RateLimitDisabled = cfg.Server.RateLimitDisabled

	var opts []api.RouterOption
	admin, err := auth.NewMiddleware(auth.Config{
		Mode:       auth.Mode(cfg.Server.Auth.Mode),
		Username:   cfg.Server.Auth.Username,
		Password:   cfg.Server.Auth.Password,
		JWTSecret:  cfg.Server.Auth.JWTSecret,
		JWTTimeout: cfg.Server.Auth.JWTTimeout,
	})
	if err != nil {
		return nil, err
	}
	if admin != nil {
		opts = append(opts, api.WithAdminAuth(admin.RequireRole(auth.RoleAdmin)))
		logging.Info().Str("auth_mode", cfg.Server.Auth.Mode).Msg("Admin endpoints enabled")
	} else {
		logging.Info().Msg("Admin endpoints disabled (AUTH_MODE=none); the disabled set is config-only")
	}

	return api.NewRouter(api.NewHandler(deps), api.NewChiMiddleware(mw), opts...).Setup(), nil
}
