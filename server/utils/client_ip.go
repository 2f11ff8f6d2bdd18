// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ClientIP extracts the client's IP address from an HTTP request with proxy awareness.
//
// Proxy headers (X-Forwarded-For, X-Real-IP) are only trusted when the connection
// comes from trusted sources (private/loopback networks).
func ClientIP(r *http.Request) string {
	// Extract IP from RemoteAddr by removing the port component.
	remoteIP := r.RemoteAddr
	if ip, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = ip
	}

	// Only trust proxy headers if request comes from a trusted network.
	fromTrustedSource := false
	if ip := net.ParseIP(remoteIP); ip != nil {
		fromTrustedSource = ip.IsPrivate() || ip.IsLoopback()
	}

	if fromTrustedSource {
		// X-Real-IP takes precedence as it's typically the originating client IP
		// when set by a trusted proxy.
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}

		// If X-Real-IP isn't available, use the last IP in X-Forwarded-For.
		// This represents the client's IP in a chain of proxies.
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			parts := strings.Split(xff, ",")

			return strings.TrimSpace(parts[len(parts)-1])
		}
	}

	// Fallback to the direct connection IP when proxy headers aren't available
	// or the source isn't trusted.
	if remoteIP != "" {
		return remoteIP
	}

	log.Error().
		Msg("Could not determine client IP")

	return ""
}
