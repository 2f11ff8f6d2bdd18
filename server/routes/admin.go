// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"strings"

	"github.com/nivelo/nivelo/core/blocklist"
	"github.com/nivelo/nivelo/server/utils"
)

type catalogSyncResponse struct {
	Success  bool `json:"success"`
	Products int  `json:"products"`
	Prices   int  `json:"prices"`
}

type blocklistResponse struct {
	IPs   []blocklist.BlockedIP   `json:"ips"`
	Paths []blocklist.BlockedPath `json:"paths"`
}

// AdminCatalogSync refreshes the product and price mirrors from the provider.
func AdminCatalogSync(w http.ResponseWriter, r *http.Request) error {
	if _, err := requireAdmin(r); err != nil {
		return err
	}

	summary, err := deps.Reconciler.SyncProductsAndPrices(r.Context())
	if err != nil {
		return Upstream("failed to sync catalog", err.Error())
	}

	WriteJSON(w, http.StatusOK, catalogSyncResponse{
		Success:  true,
		Products: summary.Products,
		Prices:   summary.Prices,
	})

	return nil
}

// AdminBlocklist lists both blocklist tables.
func AdminBlocklist(w http.ResponseWriter, r *http.Request) error {
	if _, err := requireAdmin(r); err != nil {
		return err
	}

	ctx := r.Context()

	ips, err := deps.Blocklist.ListIPs(ctx)
	if err != nil {
		return err
	}

	paths, err := deps.Blocklist.ListPaths(ctx)
	if err != nil {
		return err
	}

	WriteJSON(w, http.StatusOK, blocklistResponse{IPs: ips, Paths: paths})

	return nil
}

// AdminUnblockIP removes an IP from the blocklist.
func AdminUnblockIP(w http.ResponseWriter, r *http.Request) error {
	if _, err := requireAdmin(r); err != nil {
		return err
	}

	ip := utils.GetPathVar(r, "ip")
	if ip == "" {
		return BadRequest("ip is required")
	}

	if err := deps.Blocklist.UnblockIP(r.Context(), ip); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// AdminUnblockPath removes a path from the blocklist. The blocked path is
// carried in the wildcard remainder of the URL.
func AdminUnblockPath(w http.ResponseWriter, r *http.Request) error {
	if _, err := requireAdmin(r); err != nil {
		return err
	}

	path := utils.GetPathVar(r, "path")
	if path == "" {
		return BadRequest("path is required")
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if err := deps.Blocklist.UnblockPath(r.Context(), path); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
