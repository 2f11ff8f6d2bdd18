// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"html"
	"net/http"

	"github.com/nivelo/nivelo/core/cookie"
	"github.com/nivelo/nivelo/i18n"
	"github.com/nivelo/nivelo/server/utils"
)

// legalDocs is the closed set of legal pages.
var legalDocs = map[string]bool{
	"privacy": true,
	"terms":   true,
	"cookies": true,
}

// pageShell is the minimal document the page stubs render while the real
// frontend is served separately.
const pageShell = `<!DOCTYPE html>
<html lang=%q>
<head><meta charset="utf-8"><title>%s</title></head>
<body><h1>%s</h1><p>%s</p></body>
</html>
`

// rememberLocale persists the locale a visitor is browsing in, so their next
// unlocalized request routes back to it.
func rememberLocale(w http.ResponseWriter, r *http.Request, locale string) {
	if !i18n.IsSupported(locale) {
		return
	}

	if c, err := r.Cookie(string(cookie.LocaleCookie)); err == nil && c.Value == locale {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     string(cookie.LocaleCookie),
		Value:    locale,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func renderPage(w http.ResponseWriter, locale, title, heading, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	fmt.Fprintf(w, pageShell,
		locale,
		html.EscapeString(title),
		html.EscapeString(heading),
		html.EscapeString(body),
	)
}

// HomePage renders the localized landing stub.
func HomePage(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	locale := utils.GetPathVar(r, "locale", i18n.BaseLocale)

	rememberLocale(w, r, locale)

	renderPage(w, locale,
		i18n.Tr(ctx, "home.title"),
		i18n.Tr(ctx, "home.welcome"),
		i18n.Tr(ctx, "site.tagline"),
	)

	return nil
}

// LegalPage renders a localized legal document stub.
func LegalPage(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	locale := utils.GetPathVar(r, "locale", i18n.BaseLocale)
	doc := utils.GetPathVar(r, "doc")

	if !legalDocs[doc] {
		return NotFound("no such document")
	}

	rememberLocale(w, r, locale)

	title := i18n.Tr(ctx, "legal."+doc+".title")

	renderPage(w, locale, title, title, i18n.Tr(ctx, "site.name"))

	return nil
}
