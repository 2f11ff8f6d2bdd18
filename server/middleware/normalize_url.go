// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// NormalizeURL removes trailing slashes from URLs (except root) so that
// blocklist matching and routing see one canonical form of each path.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if hasTrailingSlash(r) {
		removeTrailingSlash(w, r)

		return
	}

	next.ServeHTTP(w, r)
}

// hasTrailingSlash checks if a request path has a trailing slash (except root).
func hasTrailingSlash(r *http.Request) bool {
	return r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/")
}

// removeTrailingSlash removes trailing slash and redirects.
func removeTrailingSlash(w http.ResponseWriter, r *http.Request) {
	url := r.URL

	if len(url.Path) > 1 {
		url.Path = strings.TrimSuffix(url.Path, "/")
	}

	http.Redirect(w, r, url.String(), http.StatusPermanentRedirect)
}
