// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed messages/*.json
var messagesFS embed.FS

var (
	// catalogsByTag maps canonical BCP 47 tags, for example "es" or "en",
	// to their flattened dotted-key catalogue.
	catalogsByTag map[string]map[string]string

	// supportedTags holds the list of BCP 47 tags for which a catalogue was
	// successfully loaded.
	supportedTags []language.Tag

	// matcher is a private [language.Matcher] derived from the loaded catalogues.
	matcher language.Matcher
)

// Setup initialises package i18n by loading JSON message catalogues from
// embedded assets and constructing a language matcher.
//
// The expected layout is:
//
//	messages/<locale>.json
//
// Each catalogue may nest objects arbitrarily; nested keys are flattened to
// dotted keys ("home.title"). The base locale, specified by BaseLocale, is
// always the default fallback for matching.
//
// Calling Setup again replaces the previously loaded catalogues and matcher.
func Setup() error {
	Logger = log.With().Str("sys", "i18n").Logger()

	catalogsByTag = make(map[string]map[string]string)
	supportedTags = nil
	matcher = nil

	entries, err := fs.ReadDir(messagesFS, "messages")
	if err != nil {
		return fmt.Errorf("failed to read messages directory: %w", err)
	}

	var tagsList []language.Tag

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		fileName := entry.Name()
		localeName := strings.TrimSuffix(fileName, ".json")

		t, err := language.Parse(strings.ReplaceAll(localeName, "_", "-"))
		if err != nil {
			Logger.Warn().Err(err).Str("file", fileName).Msg("Skipping invalid locale file")

			continue
		}

		raw, err := messagesFS.ReadFile("messages/" + fileName)
		if err != nil {
			return fmt.Errorf("failed to read catalogue %s: %w", fileName, err)
		}

		var nested map[string]any
		if err := json.Unmarshal(raw, &nested); err != nil {
			return fmt.Errorf("failed to parse catalogue %s: %w", fileName, err)
		}

		flat := make(map[string]string)
		flatten("", nested, flat)

		canonical := t.String()
		catalogsByTag[canonical] = flat

		tagsList = append(tagsList, t)

		Logger.Info().
			Str("locale", canonical).
			Int("messages", len(flat)).
			Msg("Loaded locale")
	}

	if _, ok := catalogsByTag[BaseLocale]; !ok {
		return fmt.Errorf("base locale catalogue %q is missing", BaseLocale)
	}

	// Build a private matcher from the loaded languages.
	// baseTag is first to make it the default fallback for matching.
	all := make([]language.Tag, 0, len(tagsList)+1)

	all = append(all, baseTag)

	sort.Slice(tagsList, func(i, j int) bool { return tagsList[i].String() < tagsList[j].String() })

	for _, t := range tagsList {
		if t == baseTag {
			continue
		}

		all = append(all, t)
	}

	matcher = language.NewMatcher(all)
	supportedTags = all

	return nil
}

// flatten walks a nested catalogue object and writes dotted keys into out.
func flatten(prefix string, nested map[string]any, out map[string]string) {
	for key, value := range nested {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(full, v, out)
		default:
			// Catalogues hold strings and objects only; anything else is an
			// authoring mistake.
			Logger.Warn().Str("key", full).Msg("Ignoring non-string catalogue value")
		}
	}
}
