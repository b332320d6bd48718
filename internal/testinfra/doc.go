// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

//go:build integration

// Package testinfra starts the containers used by integration tests.
//
// Tests using it are built with -tags integration and skip themselves when
// no Docker daemon is reachable:
//
//	func TestPostgres(t *testing.T) {
//	    pg := testinfra.NewPostgresContainer(t)
//	    db := pg.Open(t)
//	    ...
//	}
package testinfra
