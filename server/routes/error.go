// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"github.com/nivelo/nivelo/server/request_context"
)

// ErrorEnvelope is the JSON shape of every error response at the API boundary.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusError is an error that carries the HTTP status it should produce.
//
// Route handlers return it for handled failure modes (validation, missing
// resources, authorization); any other error is treated as an internal one
// by the error handling middleware.
type StatusError struct {
	Code    int
	Message string
	Details string
}

func (e *StatusError) Error() string {
	return e.Message
}

// BadRequest signals a 400 with a caller-facing message.
func BadRequest(message string) error {
	return &StatusError{Code: http.StatusBadRequest, Message: message}
}

// Unauthorized signals a 401.
func Unauthorized() error {
	return &StatusError{Code: http.StatusUnauthorized, Message: "authentication required"}
}

// Forbidden signals a 403.
func Forbidden() error {
	return &StatusError{Code: http.StatusForbidden, Message: "forbidden"}
}

// NotFound signals a 404 with a caller-facing message.
func NotFound(message string) error {
	return &StatusError{Code: http.StatusNotFound, Message: message}
}

// TooManyRequests signals a 429.
func TooManyRequests() error {
	return &StatusError{Code: http.StatusTooManyRequests, Message: "too many requests"}
}

// Upstream signals a 500 caused by a dependency, preserving a detail string
// for the caller.
func Upstream(message, details string) error {
	return &StatusError{Code: http.StatusInternalServerError, Message: message, Details: details}
}

// ErrorResponse writes the JSON error envelope for the request's stored error
// and status code.
//
// Called by the error handling middleware after it has discarded any partial
// handler output.
func ErrorResponse(w http.ResponseWriter, r *http.Request) {
	rc := request_context.FromRequest(r)

	envelope := ErrorEnvelope{Error: http.StatusText(rc.StatusCode)}

	var serr *StatusError

	switch {
	case errors.As(rc.RequestError, &serr):
		envelope.Error = serr.Message
		envelope.Details = serr.Details
	case rc.StatusCode == http.StatusInternalServerError:
		envelope.Error = "internal server error"
	}

	w.Header().Set("Cache-Control", "no-store")

	WriteJSON(w, rc.StatusCode, envelope)
}
