// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"net/http"
	"time"
)

const healthzTimeout = 2 * time.Second

type healthzResponse struct {
	Status string `json:"status"`
}

// Healthz reports liveness of the service and its database.
func Healthz(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), healthzTimeout)
	defer cancel()

	if err := deps.DB.PingContext(ctx); err != nil {
		return Upstream("database unreachable", err.Error())
	}

	WriteJSON(w, http.StatusOK, healthzResponse{Status: "ok"})

	return nil
}
