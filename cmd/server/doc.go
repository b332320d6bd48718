// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

/*
Package main is the entry point for the Auditrail server.

Auditrail records activity occurrences raised by a host application,
fans them out to the configured sinks, renders them through message
templates, and moves aged occurrences from the live store to an archive
store on a schedule.

# Application Architecture

	RootSupervisor ("auditrail")
	├── DataSupervisor ("data-layer")
	│   └── archive.Scheduler (ARCHIVE_ENABLED=true)
	├── ControlSupervisor ("control-layer")
	│   └── ConfigWatchService (when a config file was loaded)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON or console output
 3. Stores: live store, then the archive store when archiving
 4. Dispatcher: alert registry, disabled set and sinks
 5. Archive scheduler
 6. Supervisor tree and HTTP server

# Configuration

Priority: Environment variables > Config file > Defaults

	LOG_LEVEL=info                    # trace, debug, info, warn, error
	LOG_FORMAT=json                   # json or console

	DB_DRIVER=duckdb                  # duckdb, sqlite or postgres
	DB_DSN=/data/auditrail.duckdb

	ARCHIVE_ENABLED=false
	ARCHIVE_MODE=archive              # archive or prune
	ARCHIVE_DB_DRIVER=sqlite
	ARCHIVE_DB_DSN=/data/auditrail-archive.db
	ARCHIVE_RETENTION_DAYS=90         # or ARCHIVE_KEEP_COUNT
	ARCHIVE_INTERVAL=1h

	ALERTS_DISABLED=1000,1001         # hot-reloaded from the config file
	SINK_CONSOLE=false
	SINK_FILE_ENABLED=false
	SINK_NATS_ENABLED=false           # requires -tags nats

	HTTP_PORT=8380
	CORS_ORIGINS=https://admin.example.com

	AUTH_MODE=none                    # none, basic or jwt; none leaves PUT unrouted
	ADMIN_USERNAME=admin              # basic
	ADMIN_PASSWORD=...                # basic, 8+ characters
	JWT_SECRET=...                    # jwt, 32+ characters

# Build Tags

	go build ./cmd/server               # Standard build
	go build -tags nats ./cmd/server    # NATS JetStream publisher sink

# Signal Handling

On SIGINT or SIGTERM the supervisor tree is canceled: the HTTP server
drains in-flight requests, an archive batch in progress finishes its
current copy or delete step, then the sinks and stores are closed.
*/
package main
