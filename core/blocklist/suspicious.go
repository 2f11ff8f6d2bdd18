// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package blocklist

import "strings"

// suspiciousTokens are substrings associated with common vulnerability
// scanning probes: admin panel paths, script interpreter extensions,
// config/backup file extensions and setup utilities.
//
// Matching is a blunt, stateless substring check; a single hit is enough to
// block. False positives on legitimate paths containing these substrings are
// possible and accepted.
var suspiciousTokens = []string{
	// Admin panels and CMS probes.
	"/wp-admin",
	"/wp-login",
	"/wp-content",
	"/wp-includes",
	"/xmlrpc",
	"/phpmyadmin",
	"/administrator",

	// Script interpreter extensions.
	".php",
	".asp",
	".aspx",
	".jsp",
	".cgi",

	// Config and backup files.
	".env",
	".git",
	".sql",
	".bak",
	".ini",
	".htaccess",

	// Setup and install utilities.
	"/setup",
	"/install",
	"/cgi-bin",
}

// IsSuspicious reports whether the lowercase form of path contains any of
// the suspicious tokens.
func IsSuspicious(path string) bool {
	_, found := MatchToken(path)

	return found
}

// MatchToken returns the first suspicious token contained in the lowercase
// form of path, if any.
func MatchToken(path string) (string, bool) {
	lower := strings.ToLower(path)

	for _, token := range suspiciousTokens {
		if strings.Contains(lower, token) {
			return token, true
		}
	}

	return "", false
}
