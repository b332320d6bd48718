// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/format"
	"github.com/tomtom215/auditrail/internal/occurrence"
	"github.com/tomtom215/auditrail/internal/validation"
)

// OccurrenceView is an occurrence with its rendered message.
type OccurrenceView struct {
	occurrence.Occurrence
	CreatedAt time.Time                   `json:"created_at"`
	Level     string                      `json:"level"`
	Message   string                      `json:"message"`
	Metadata  map[string]occurrence.Value `json:"metadata,omitempty"`
}

type listRequest struct {
	Limit  int    `validate:"min=1,max=500"`
	Offset int    `validate:"min=0,max=1000000"`
	Format string `validate:"omitempty,oneof=plain text rich html dashboard email"`
	Source string `validate:"oneof=live archive"`
}

// Occurrences lists occurrences newest first with rendered messages.
//
// Query parameters: alert_id (comma-separated), username, limit (default
// 50), offset, format (plain, rich, dashboard, email), source (live or
// archive) and include_meta.
//
// @Summary List occurrences
// @Description Returns occurrences newest first with messages rendered in the requested format.
// @Tags Occurrences
// @Produce json
// @Param alert_id query string false "Comma-separated alert types"
// @Param username query string false "Username"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Param format query string false "plain, rich, dashboard or email"
// @Param source query string false "live or archive" default(live)
// @Param include_meta query bool false "Include metadata values"
// @Success 200 {object} Response{data=[]OccurrenceView} "Rendered occurrences"
// @Failure 400 {object} Response "Invalid parameters"
// @Failure 503 {object} Response "Store unavailable or schema missing"
// @Router /occurrences [get]
func (h *Handler) Occurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listRequest{
		Limit:  getIntParam(r, "limit", 50),
		Offset: getIntParam(r, "offset", 0),
		Format: q.Get("format"),
		Source: q.Get("source"),
	}
	if req.Source == "" {
		req.Source = "live"
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}
	alertIDs, err := parseCommaSeparatedInts(q.Get("alert_id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "alert_id: "+err.Error(), nil)
		return
	}

	store, ok := h.source(req.Source)
	if !ok {
		respondError(w, r, http.StatusNotFound, "ARCHIVE_NOT_CONFIGURED", "No archive store is configured", nil)
		return
	}
	cfg, _ := h.renderConfig(req.Format)

	start := time.Now()
	filter := occurrence.Filter{
		AlertIDs:  alertIDs,
		Username:  q.Get("username"),
		OrderDesc: true,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	list, err := store.SelectOccurrences(r.Context(), filter)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	total, err := store.CountOccurrences(r.Context(), occurrence.Filter{AlertIDs: alertIDs, Username: filter.Username})
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	rows, err := store.SelectMetadata(r.Context(), occurrence.IDs(list))
	if err != nil && !errors.Is(err, occurrence.ErrSchemaMissing) {
		h.respondStoreError(w, r, err)
		return
	}

	includeMeta := q.Get("include_meta") == "true"
	grouped := occurrence.GroupMetadata(rows)
	nonce := uuid.New().String()
	views := make([]OccurrenceView, 0, len(list))
	for i := range list {
		views = append(views, h.view(&list[i], grouped[list[i].ID], cfg, nonce, includeMeta))
	}

	respondData(w, views, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Total:       &total,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
}

// Occurrence returns one occurrence with its metadata.
//
// @Summary Get an occurrence
// @Tags Occurrences
// @Produce json
// @Param id path int true "Occurrence id"
// @Param format query string false "plain, rich, dashboard or email"
// @Param source query string false "live or archive" default(live)
// @Success 200 {object} Response{data=OccurrenceView} "Rendered occurrence"
// @Failure 400 {object} Response "Invalid id"
// @Failure 404 {object} Response "Not found"
// @Router /occurrences/{id} [get]
func (h *Handler) Occurrence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return
	}
	cfg, ok := h.renderConfig(r.URL.Query().Get("format"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "format must be one of: plain, rich, dashboard, email", nil)
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "live"
	}
	store, ok := h.source(source)
	if !ok {
		respondError(w, r, http.StatusNotFound, "ARCHIVE_NOT_CONFIGURED", "No archive store is configured", nil)
		return
	}

	o, err := occurrence.GetOccurrence(r.Context(), store, id)
	if errors.Is(err, occurrence.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Occurrence not found", nil)
		return
	}
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	rows, err := store.SelectMetadata(r.Context(), []int64{id})
	if err != nil && !errors.Is(err, occurrence.ErrSchemaMissing) {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, h.view(o, occurrence.MetaMap(rows), cfg, uuid.New().String(), true), Metadata{})
}

func (h *Handler) source(name string) (occurrence.Store, bool) {
	if name == "archive" {
		return h.archive, h.archive != nil
	}
	return h.live, h.live != nil
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, occurrence.ErrSchemaMissing) {
		respondError(w, r, http.StatusServiceUnavailable, "SCHEMA_MISSING", "Audit tables have not been created", err)
		return
	}
	respondError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Audit store unavailable", err)
}

func (h *Handler) view(o *occurrence.Occurrence, meta map[string]occurrence.Value, cfg format.Configuration, nonce string, includeMeta bool) OccurrenceView {
	v := OccurrenceView{
		Occurrence: *o,
		CreatedAt:  o.Created(),
		Level:      alerts.NormalizeSeverity(alerts.Severity(o.Severity)).Level(),
	}

	renderMeta := withColumns(o, meta)
	if def, ok := h.registry.Get(o.AlertID); ok {
		id := o.ID
		v.Message = h.formatter.RenderWith(def.Message, format.RenderContext{
			Meta:         renderMeta,
			OccurrenceID: &id,
			Config:       cfg,
			Nonce:        nonce,
		})
	}
	if includeMeta {
		v.Metadata = meta
	}
	return v
}

// withColumns adds occurrence columns as fallbacks for tokens whose
// metadata row is absent, as in archived legacy data.
func withColumns(o *occurrence.Occurrence, meta map[string]occurrence.Value) map[string]occurrence.Value {
	out := make(map[string]occurrence.Value, len(meta)+4)
	for k, v := range meta {
		out[k] = v
	}
	fallback := func(key string, v occurrence.Value, present bool) {
		if _, ok := out[key]; !ok && present {
			out[key] = v
		}
	}
	fallback("Username", occurrence.StringValue(o.Username), o.Username != "")
	fallback("ClientIP", occurrence.StringValue(o.ClientIP), o.ClientIP != "")
	fallback("UserAgent", occurrence.StringValue(o.UserAgent), o.UserAgent != "")
	fallback("PostType", occurrence.StringValue(o.PostType), o.PostType != "")
	fallback("PostStatus", occurrence.StringValue(o.PostStatus), o.PostStatus != "")
	fallback("EventType", occurrence.StringValue(o.EventType), o.EventType != "")
	return out
}
