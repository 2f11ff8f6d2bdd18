// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	// Logger is the logger used by package i18n.
	Logger zerolog.Logger

	// missingKeyOnce deduplicates logs for missing keys.
	// The key is locale+"\x00"+key.
	missingKeyOnce sync.Map
)

// logMissingOnce logs a missing translation once per (locale, key) pair.
func logMissingOnce(locale, key string) {
	id := locale + "\x00" + key
	if _, loaded := missingKeyOnce.LoadOrStore(id, struct{}{}); !loaded {
		Logger.Debug().
			Str("locale", locale).
			Str("key", key).
			Msg("Missing i18n translation")
	}
}
