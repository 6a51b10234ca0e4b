// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API over the versioning service.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pagecraft/internal/middleware"
	"pagecraft/internal/store"
	"pagecraft/internal/versioning"
)

// API groups the JSON endpoints.
type API struct {
	svc *versioning.Service
}

// NewAPI creates the handler group.
func NewAPI(svc *versioning.Service) *API {
	return &API{svc: svc}
}

// apiError is the body of every error response.
type apiError struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	CurrentRev *int   `json:"current_rev,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps the service error taxonomy onto HTTP.
func statusFor(kind versioning.Kind) int {
	switch kind {
	case versioning.KindNotFound:
		return http.StatusNotFound
	case versioning.KindConflict:
		return http.StatusConflict
	case versioning.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

// writeServiceError renders a versioning error. Storage failures are logged
// and their cause is not exposed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := versioning.KindOf(err)
	detail := errorDetail{Code: string(kind), Message: "storage unavailable"}

	var verr *versioning.Error
	if errors.As(err, &verr) && kind != versioning.KindStorage {
		detail.Message = verr.Message
	}
	var stale *store.StaleRevisionError
	if errors.As(err, &stale) {
		detail.CurrentRev = &stale.Current
	}
	if kind == versioning.KindStorage {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, statusFor(kind), apiError{Error: detail})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when optional is set. The returned message is meant for the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) (string, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return "", true
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "Request body is too large.", false
		}
		return "Request body must be a JSON object.", false
	}
	if dec.More() {
		return "Request body must contain a single JSON value.", false
	}
	return "", true
}

// pathID parses the {id} URL parameter. Malformed ids cannot name a
// template, so they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, string(versioning.KindNotFound), "template not found")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalID parses an optional UUID that has already passed
// validation.
func parseOptionalID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id := uuid.MustParse(*s)
	return &id
}

func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(middleware.ActorHeader))
}
