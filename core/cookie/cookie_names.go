// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
This package defines the cookie names used by this application.
*/
package cookie

type CookieName string

// Cookie names defined as constants.
//
// NOTE: We don't use the `__Host-` prefix to avoid login issues on non-HTTPS
// deployments where the localhost exemption doesn't apply.
const (
	// Session cookies issued by the auth backend and rotated by the
	// session refresher.
	AccessTokenCookie  CookieName = "nv-access-token" // #nosec:G101 - false positive
	RefreshTokenCookie CookieName = "nv-refresh-token"

	// Preferred UI locale, set when a visitor opens a localized page.
	LocaleCookie CookieName = "nv-locale"
)
