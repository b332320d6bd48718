// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

/*
Package services adapts Auditrail components to suture's Serve pattern.

HTTPServerService turns ListenAndServe/Shutdown into a context-aware
Serve with a bounded graceful shutdown. ConfigWatchService keeps a koanf
file watcher alive for as long as its supervisor runs and calls back on
every change.

The archive scheduler needs no wrapper: archive.Scheduler implements
suture.Service directly.
*/
package services
