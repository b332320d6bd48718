// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

/*
Package supervisor runs Auditrail's long-lived services under suture v4.

The tree has three layers so a failing archive run cannot take the API
down with it:

	RootSupervisor ("auditrail")
	├── DataSupervisor ("data-layer")
	│   └── archive.Scheduler (if ARCHIVE_ENABLED)
	├── ControlSupervisor ("control-layer")
	│   └── ConfigWatchService (if a config file is in use)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (service start, failure, backoff) are logged through
sutureslog onto the slog bridge returned by logging.NewSlogLogger.

Basic setup:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(scheduler)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
