// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/auth"
	"github.com/tomtom215/auditrail/internal/logging"
	"github.com/tomtom215/auditrail/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// AlertView is a registry entry with its current enablement.
type AlertView struct {
	alerts.Definition
	Level   string `json:"level"`
	Enabled bool   `json:"enabled"`
}

// DisabledAlerts is the body of the disabled-set endpoints.
type DisabledAlerts struct {
	Disabled []int `json:"disabled" validate:"max=10000,dive,gt=0"`
}

// Alerts lists registered alert types, optionally filtered by ?category=.
//
// @Summary List alert types
// @Description Returns every registered alert definition with its severity level and whether it is enabled.
// @Tags Alerts
// @Produce json
// @Param category query string false "Category name (case-insensitive)"
// @Success 200 {object} Response{data=[]AlertView} "Registered alert types"
// @Router /alerts [get]
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	defs := h.registry.All()
	out := make([]AlertView, 0, len(defs))
	for i := range defs {
		if category != "" && !strings.EqualFold(defs[i].Category, category) {
			continue
		}
		out = append(out, AlertView{
			Definition: defs[i],
			Level:      defs[i].Severity.Level(),
			Enabled:    h.dispatcher.IsEnabled(defs[i].Type),
		})
	}
	respondData(w, out, Metadata{})
}

// GetDisabled returns the disabled alert types.
//
// @Summary Get disabled alert types
// @Tags Alerts
// @Produce json
// @Success 200 {object} Response{data=DisabledAlerts} "Disabled alert types, sorted"
// @Router /alerts/disabled [get]
func (h *Handler) GetDisabled(w http.ResponseWriter, _ *http.Request) {
	respondData(w, DisabledAlerts{Disabled: h.dispatcher.GetDisabled()}, Metadata{})
}

// PutDisabled replaces the disabled set. Every type must be registered.
//
// @Summary Replace disabled alert types
// @Description Replaces the disabled set and records the change as alert 6024. Requires the admin role.
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body DisabledAlerts true "New disabled set"
// @Success 200 {object} Response{data=DisabledAlerts} "Disabled set replaced"
// @Failure 400 {object} Response "Malformed body or unknown alert type"
// @Failure 401 {string} string "Missing or invalid credentials"
// @Failure 403 {string} string "Admin role required"
// @Security BasicAuth
// @Security BearerAuth
// @Router /alerts/disabled [put]
func (h *Handler) PutDisabled(w http.ResponseWriter, r *http.Request) {
	var req DisabledAlerts
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be {\"disabled\": [alert types]}", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}
	for _, t := range req.Disabled {
		if _, ok := h.registry.Get(t); !ok {
			respondError(w, r, http.StatusBadRequest, "UNKNOWN_ALERT_TYPE", "Unknown alert type "+strconv.Itoa(t), nil)
			return
		}
	}

	h.dispatcher.SetDisabled(req.Disabled)
	current := h.dispatcher.GetDisabled()

	data := map[string]any{"DisabledAlerts": joinInts(current)}
	if subject := auth.SubjectFromContext(r.Context()); subject != nil {
		data["Username"] = subject.Username
	}
	// The change is itself audited unless the type is now disabled.
	if err := h.dispatcher.Trigger(r.Context(), alerts.TypeAlertsToggled, data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to audit disabled alert change")
	}

	respondData(w, DisabledAlerts{Disabled: current}, Metadata{})
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
