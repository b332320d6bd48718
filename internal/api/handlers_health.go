// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthLive reports that the process is serving requests.
//
// @Summary Liveness probe
// @Description Returns 200 while the process is serving requests, regardless of store health.
// @Tags Core
// @Produce json
// @Success 200 {object} Response{data=HealthStatus} "Process is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, HealthStatus{Status: "alive", UptimeSeconds: time.Since(h.startTime).Seconds()}, Metadata{})
}

// HealthReady runs every readiness check and answers 503 if any fails.
//
// @Summary Readiness probe
// @Description Pings the live store and, when configured, the archive store.
// @Tags Core
// @Produce json
// @Success 200 {object} Response{data=HealthStatus} "All checks passed"
// @Failure 503 {object} Response{data=HealthStatus} "A check failed"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "ready",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Checks:        make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(r.Context()); err != nil {
			status.Checks[c.Name] = err.Error()
			status.Status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Checks[c.Name] = "ok"
	}

	envelope := "success"
	if code != http.StatusOK {
		envelope = "error"
	}
	respondJSON(w, code, &Response{
		Status:   envelope,
		Data:     status,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}
