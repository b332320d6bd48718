// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Swagger general API info, read by `swag init -g cmd/server/docs.go`.
//
// @title Auditrail API
// @version 1.0
// @description Activity audit log: registered alert types, the disabled set, and rendered occurrences from the live and archive stores.
// @description
// @description ## Error Responses
// @description
// @description API errors use the response envelope:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "ERROR_CODE", "message": "Human-readable message"},
// @description   "metadata": {"timestamp": "2026-01-01T00:00:00Z"}
// @description }
// @description ```
// @description Authentication failures on admin endpoints are plain text.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/auditrail/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8380
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.basic BasicAuth
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 JWT as "Bearer <token>" (AUTH_MODE=jwt).
//
// @tag.name Core
// @tag.description Health probes
//
// @tag.name Alerts
// @tag.description Alert registry and enablement
//
// @tag.name Occurrences
// @tag.description Rendered audit occurrences
//
// @tag.name Admin
// @tag.description Mutating endpoints, mounted only when AUTH_MODE is basic or jwt
package main
