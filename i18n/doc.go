// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n provides internationalisation utilities backed by embedded JSON
message catalogues. It resolves dotted message keys across the supported
locales and negotiates the best locale for incoming requests.

# Quick start

Translate strings with calls such as:

	i18n.Tr(ctx, "home.title")
	i18n.Tr(ctx, "contact.greeting", "Name", user.Name)

The context carries the negotiated locale; handlers receive it through the
request context installed by the middleware chain.

# Missing translations

A missing key falls back to the base locale's catalogue; if the key is absent
there too, the key itself is returned and the miss is logged once per
locale+key pair.

# Formatting

Translations can include placeholders that are processed by Go's standard
text/template package. Provide substitutions as alternating key-value pairs:

	i18n.Tr(ctx, "account.welcome", "Name", user.Name)

# Locale negotiation

Page URLs are prefixed with the locale ("/es/...", "/en/..."). SplitLocale
extracts the prefix; FromRequest negotiates a locale from the path, the
locale cookie and the Accept-Language header, in that order.
*/
package i18n
