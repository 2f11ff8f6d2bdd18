// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nivelo/nivelo/core/cookie"
)

func setup(t *testing.T) {
	t.Helper()
	require.NoError(t, Setup())
}

func TestSetupLoadsSupportedLocales(t *testing.T) {
	setup(t)

	tags := Languages()
	require.Len(t, tags, 2)

	// Base locale first in matcher order, sorted here.
	assert.Equal(t, "en", tags[0].String())
	assert.Equal(t, "es", tags[1].String())
}

func TestTr(t *testing.T) {
	setup(t)

	esCtx := WithTag(context.Background(), language.Make("es"))
	enCtx := WithTag(context.Background(), language.Make("en"))

	assert.Equal(t, "Bienvenido a Nivelo", Tr(esCtx, "home.welcome"))
	assert.Equal(t, "Welcome to Nivelo", Tr(enCtx, "home.welcome"))

	// Default locale when the context carries no tag.
	assert.Equal(t, "Bienvenido a Nivelo", Tr(context.Background(), "home.welcome"))

	// Placeholder substitution.
	assert.Equal(t, "Hola, Ana", Tr(esCtx, "home.greeting", "Name", "Ana"))

	// Unknown keys are returned unchanged.
	assert.Equal(t, "no.such.key", Tr(esCtx, "no.such.key"))
}

func TestSplitLocale(t *testing.T) {
	setup(t)

	tests := []struct {
		path       string
		wantLocale string
		wantRest   string
		wantOK     bool
	}{
		{"/es", "es", "/", true},
		{"/es/", "es", "/", true},
		{"/en/legal/privacy", "en", "/legal/privacy", true},
		{"/", "", "", false},
		{"/pricing", "", "", false},
		{"/fr/legal", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			locale, rest, ok := SplitLocale(tt.path)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLocale, locale)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestPathWithLocale(t *testing.T) {
	setup(t)

	assert.Equal(t, "/es", PathWithLocale(language.Make("es"), "/"))
	assert.Equal(t, "/en/precios", PathWithLocale(language.Make("en"), "/precios"))

	// Regional variants reduce to their base language.
	assert.Equal(t, "/es", PathWithLocale(language.Make("es-MX"), ""))

	// Unsupported languages fall back to the default locale.
	assert.Equal(t, "/es/precios", PathWithLocale(language.Make("fr"), "/precios"))
}

func TestFromRequest(t *testing.T) {
	setup(t)

	t.Run("path prefix wins", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/en/legal/privacy", nil)
		r.Header.Set("Accept-Language", "es")

		assert.Equal(t, "en", FromRequest(r).String())
	})

	t.Run("cookie beats header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/pricing", nil)
		r.AddCookie(&http.Cookie{Name: string(cookie.LocaleCookie), Value: "en"})
		r.Header.Set("Accept-Language", "es")

		assert.Equal(t, "en", FromRequest(r).String())
	})

	t.Run("accept-language fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/pricing", nil)
		r.Header.Set("Accept-Language", "en-GB,en;q=0.9")

		base, _ := FromRequest(r).Base()
		assert.Equal(t, "en", base.String())
	})

	t.Run("default when nothing matches", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/pricing", nil)

		assert.Equal(t, "es", FromRequest(r).String())
	})
}
