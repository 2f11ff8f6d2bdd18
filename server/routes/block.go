// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"net/http"
)

type BlockData struct {
	Reason string `json:"reason"`
}

// BlockPage writes a gate rejection as a JSON response.
//
// The body is intentionally opaque: it names no detection rule, so probes
// learn nothing about why they were rejected.
func BlockPage(w http.ResponseWriter, statusCode int) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(BlockData{Reason: "request blocked"})
}
