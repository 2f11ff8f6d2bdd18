// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// SplitLocale extracts a supported locale prefix from a URL path.
//
// "/en/legal/privacy" yields ("en", "/legal/privacy", true);
// "/pricing" yields ("", "", false). The second return value is "/" when the
// path is exactly the locale root.
func SplitLocale(path string) (locale, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")

	segment, remainder, _ := strings.Cut(trimmed, "/")
	if segment == "" || !IsSupported(segment) {
		return "", "", false
	}

	return segment, "/" + remainder, true
}

// IsSupported reports whether name is exactly one of the supported locales.
//
// Setup must have been called; an unconfigured package supports only
// [BaseLocale].
func IsSupported(name string) bool {
	if name == BaseLocale {
		return true
	}

	for _, t := range supportedTags {
		if t.String() == name {
			return true
		}
	}

	return false
}

// PathWithLocale prefixes a path with the locale segment for the given tag.
//
// The tag is reduced to its base language ("es-MX" becomes "es") so the
// result always names a supported catalogue.
func PathWithLocale(t language.Tag, path string) string {
	base, _ := t.Base()

	locale := base.String()
	if !IsSupported(locale) {
		locale = BaseLocale
	}

	if path == "" || path == "/" {
		return "/" + locale
	}

	return "/" + locale + path
}
