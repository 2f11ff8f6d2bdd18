// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// templateCache caches compiled templates per unique template text.
var templateCache sync.Map // key: text, value: *template.Template

type Vars map[string]any

// Tr returns the translated string for a dotted message key in the locale
// carried by ctx. If key-value pairs are provided, the translation is
// formatted using text/template-style named placeholders.
//
// A key missing from the negotiated locale falls back to the base locale's
// catalogue; a key missing there too is returned unchanged.
func Tr(ctx context.Context, key string, kv ...any) string {
	text, found := lookup(TagFrom(ctx), key)
	if !found {
		return key
	}

	vars := v(kv...)
	if len(vars) == 0 {
		return text
	}

	return substitute(text, vars)
}

// lookup resolves a key against the catalogue for tag, falling back to the
// base locale.
func lookup(tag language.Tag, key string) (string, bool) {
	locale := tag.String()

	if catalog, ok := catalogsByTag[locale]; ok {
		if text, ok := catalog[key]; ok {
			return text, true
		}
	}

	if locale != BaseLocale {
		if text, ok := catalogsByTag[BaseLocale][key]; ok {
			logMissingOnce(locale, key)

			return text, true
		}
	}

	logMissingOnce(locale, key)

	return "", false
}

// substitute renders text as a text/template with the given variables.
// On any template error the raw text is returned.
func substitute(text string, vars Vars) string {
	var tmpl *template.Template

	if cached, ok := templateCache.Load(text); ok {
		tmpl = cached.(*template.Template)
	} else {
		parsed, err := template.New("msg").Parse(text)
		if err != nil {
			Logger.Warn().Err(err).Str("text", text).Msg("Invalid message template")

			return text
		}

		templateCache.Store(text, parsed)

		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		Logger.Warn().Err(err).Str("text", text).Msg("Failed to render message template")

		return text
	}

	return buf.String()
}

// v converts alternating key-value pairs into Vars. Keys must be strings;
// malformed pairs are ignored.
func v(kv ...any) Vars {
	if len(kv) == 0 {
		return nil
	}

	vars := make(Vars, len(kv)/2)

	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}

		vars[key] = kv[i+1]
	}

	return vars
}
