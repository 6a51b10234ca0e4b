// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"pagecraft/internal/normalize"
	"pagecraft/internal/versioning"
)

type createTemplateRequest struct {
	OwnerID  string         `json:"owner_id" validate:"required,uuid"`
	Template map[string]any `json:"template" validate:"required"`
}

type normalizeResponse struct {
	Columns map[string]any  `json:"columns"`
	Data    map[string]any  `json:"data"`
	Header  normalize.Block `json:"header"`
	Footer  normalize.Block `json:"footer"`
}

// Normalize returns the persistable form of a template object without
// storing anything. ?strip_chrome=true omits the chrome from the document.
func (a *API) Normalize(w http.ResponseWriter, r *http.Request) {
	stripChrome := false
	if v := r.URL.Query().Get("strip_chrome"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), "strip_chrome must be a boolean.")
			return
		}
		stripChrome = b
	}

	var raw map[string]any
	if msg, ok := decodeJSON(w, r, &raw, false); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	if msg := validateTemplate(raw); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), msg)
		return
	}

	res, err := normalize.Normalize(raw, normalize.Options{StripChrome: stripChrome})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{
		Columns: res.Columns,
		Data:    res.Data,
		Header:  res.Header,
		Footer:  res.Footer,
	})
}

// CreateTemplate stores a new template at rev 0.
func (a *API) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if msg, ok := decodeJSON(w, r, &req, false); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), msg)
		return
	}
	if msg := validateTemplate(req.Template); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), msg)
		return
	}

	t, err := a.svc.Create(r.Context(), versioning.CreateInput{
		OwnerID: uuid.MustParse(req.OwnerID),
		Actor:   actor(r),
		Raw:     req.Template,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTemplates lists an owner's live templates: GET /api/templates?owner_id=.
func (a *API) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), "owner_id must be a UUID.")
		return
	}
	list, err := a.svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

// GetTemplate returns a template.
func (a *API) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := a.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ArchiveTemplate hides a template from listings.
func (a *API) ArchiveTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.Archive(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenTemplate records that an editor opened the template.
func (a *API) OpenTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.RecordOpen(r.Context(), id, actor(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
