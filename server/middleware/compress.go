// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// WithCompression transparently gzip-compresses responses for clients that
// accept it.
func WithCompression(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gzhttp.GzipHandler(next).ServeHTTP(w, r)
}
