// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/nivelo/nivelo/core/session"
	"github.com/nivelo/nivelo/server/request_context"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 * 1024

// WriteJSON writes v as the JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads the request body into v, returning a BadRequest error on
// malformed input.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return BadRequest("failed to read request body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return BadRequest("invalid JSON payload")
	}

	return nil
}

// requireUser returns the authenticated user attached by the request gate,
// or an Unauthorized error for anonymous requests.
func requireUser(r *http.Request) (*session.User, error) {
	user := request_context.FromRequest(r).User
	if user == nil {
		return nil, Unauthorized()
	}

	return user, nil
}

// requireAdmin returns the authenticated user if it carries the admin role.
func requireAdmin(r *http.Request) (*session.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() {
		return nil, Forbidden()
	}

	return user, nil
}
