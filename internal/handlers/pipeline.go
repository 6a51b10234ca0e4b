// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pagecraft/internal/models"
	"pagecraft/internal/versioning"
)

type commitRequest struct {
	BaseRev  *int         `json:"base_rev" validate:"required,gte=0"`
	Patch    models.Patch `json:"patch"`
	Kind     string       `json:"kind" validate:"omitempty,oneof=generic content favicon domain settings restore"`
	Autosave bool         `json:"autosave"`
}

type snapshotRequest struct {
	SnapshotID *string `json:"snapshot_id" validate:"omitempty,uuid"`
}

type domainRequest struct {
	Domain string `json:"domain" validate:"omitempty,fqdn,max=253"`
}

type restoreRequest struct {
	SnapshotID *string `json:"snapshot_id" validate:"omitempty,uuid"`
	Message    string  `json:"message" validate:"max=500"`
}

// decodeValid decodes and validates a request body, writing the error
// response itself when either step fails.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if msg, ok := decodeJSON(w, r, dst, optional); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return false
	}
	if msg := validateRequest(dst); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), msg)
		return false
	}
	return true
}

// Commit applies a patch under optimistic concurrency. A stale base_rev
// answers 409 with the current rev.
func (a *API) Commit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req commitRequest
	if !decodeValid(w, r, &req, false) {
		return
	}

	res, err := a.svc.Commit(r.Context(), versioning.CommitInput{
		TemplateID: id,
		BaseRev:    *req.BaseRev,
		Patch:      req.Patch,
		Actor:      actor(r),
		Kind:       models.PatchKind(req.Kind),
		Autosave:   req.Autosave,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListSnapshots returns a template's snapshots, newest first.
func (a *API) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := a.svc.ListSnapshots(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

// EnsureSnapshot returns the snapshot of the current document, creating it
// when needed, or the named snapshot when snapshot_id is given.
func (a *API) EnsureSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req snapshotRequest
	if !decodeValid(w, r, &req, true) {
		return
	}
	sn, err := a.svc.EnsureSnapshot(r.Context(), id, parseOptionalID(req.SnapshotID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// Publish points the template's site at a snapshot.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req snapshotRequest
	if !decodeValid(w, r, &req, true) {
		return
	}
	res, err := a.svc.Publish(r.Context(), id, parseOptionalID(req.SnapshotID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetDomain sets or clears the custom domain of the template's site.
func (a *API) SetDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domainRequest
	if msg, ok := decodeJSON(w, r, &req, false); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, string(versioning.KindValidation), msg)
		return
	}

	site, err := a.svc.SetDomain(r.Context(), id, req.Domain)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// Restore copies a snapshot back onto the template.
func (a *API) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req restoreRequest
	if !decodeValid(w, r, &req, true) {
		return
	}
	res, err := a.svc.Restore(r.Context(), versioning.RestoreInput{
		TemplateID: id,
		SnapshotID: parseOptionalID(req.SnapshotID),
		Message:    req.Message,
		Actor:      actor(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// History returns the merged history feed, most recent first.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	feed, err := a.svc.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": feed})
}

// ResolveSite returns a published site by its public slug.
func (a *API) ResolveSite(w http.ResponseWriter, r *http.Request) {
	site, err := a.svc.ResolveSite(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}
