// Package handler is the HTTP layer: request parsing, response shaping and
// the mapping from domain errors to status codes. No business rules here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/caltrack/caltrack/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns: a machine-
// readable code the client can switch on plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding JSON response", "error", err)
		}
	}
}

// writeError translates a domain error into an HTTP response. The sentinel
// checks are ordered: NotFound wraps ErrPersistence, so it must match first.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an unexpected error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrUninitialized):
		// 403 with a distinct code: the client routes this to its settings
		// screen, not a login screen.
		status, code = http.StatusForbidden, "credential_required"
	case errors.Is(err, apperror.ErrQuota):
		status, code = http.StatusForbidden, "quota_exhausted"
	case errors.Is(err, apperror.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrImageDecode):
		status, code = http.StatusUnprocessableEntity, "image_undecodable"
	case errors.Is(err, apperror.ErrAnalysis):
		status, code = http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, apperror.ErrPersistence):
		status, code = http.StatusInternalServerError, "persistence_error"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
