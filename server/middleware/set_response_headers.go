// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"

	"github.com/nivelo/nivelo/config"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Nivelo-Version is added dynamically in SetResponseHeaders.
	//
	// NOTE: we intentionally don't set CORP or HSTS headers; the reverse
	// proxy in front of the application owns transport policy.
	baseHeaders = http.Header{
		"Referrer-Policy":        {"no-referrer"},
		"X-Frame-Options":        {"DENY"},
		"X-Content-Type-Options": {"nosniff"},
		"Permissions-Policy":     {strings.Join(defaultPermissionsPolicy, ", ")},
	}

	// baseCSP defines the content security policy for the JSON API and the
	// localized page stubs.
	baseCSP = []string{
		"base-uri 'self'",
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}

	// defaultPermissionsPolicy defines the default Permissions-Policy header.
	defaultPermissionsPolicy = []string{
		"camera=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
)

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	headers.Set("Content-Security-Policy", strings.Join(baseCSP, "; "))
	headers.Set("Nivelo-Version", config.BuildVersion)

	next.ServeHTTP(w, r)
}
