// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package gate is a middleware that filters abusive traffic and prepares page
requests before they reach the router.

Every gated request passes a strict-order state machine: blocked IPs are
rejected first, then paths matching the abuse heuristic are persisted and
rejected, then paths covered by a persisted blocked-path prefix reject and
record the caller's IP. Surviving page requests get locale negotiation and a
session refresh.

Rejections are opaque 403 JSON responses so probes learn nothing about the
detection rules. Blocklist I/O failures follow the configured fail mode:
fail-closed renders a generic 500, fail-open lets the request through.
*/
package gate
