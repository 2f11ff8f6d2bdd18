// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes implements the HTTP handlers behind the router.

Handlers return errors instead of writing error responses themselves; the
middleware.CatchError wrapper converts them into the JSON error envelope.
*/
package routes

import (
	"context"

	"github.com/nivelo/nivelo/core/billing"
	"github.com/nivelo/nivelo/core/blocklist"
	"github.com/nivelo/nivelo/core/contact"
)

// Pinger is the liveness probe dependency. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ContactStore persists contact submissions.
type ContactStore interface {
	Save(ctx context.Context, msg *contact.Message) error
}

// SubscriptionMirror is the read side of the billing mirror.
type SubscriptionMirror interface {
	SubscriptionForUser(ctx context.Context, userID string) (*billing.Subscription, error)
	CustomerIDForUser(ctx context.Context, userID string) (string, error)
}

// BlocklistAdmin is the management surface over the blocklist tables.
type BlocklistAdmin interface {
	ListIPs(ctx context.Context) ([]blocklist.BlockedIP, error)
	ListPaths(ctx context.Context) ([]blocklist.BlockedPath, error)
	UnblockIP(ctx context.Context, ip string) error
	UnblockPath(ctx context.Context, path string) error
}

// Dependencies carries the stores and services route handlers use.
type Dependencies struct {
	DB             Pinger
	Blocklist      BlocklistAdmin
	Contacts       ContactStore
	ContactLimiter *contact.RateLimiter
	Mirror         SubscriptionMirror
	Provider       billing.Provider
	Reconciler     *billing.Reconciler
}

// deps holds the wired dependencies. Set once at startup via Setup.
var deps Dependencies

// Setup installs the handler dependencies. Called from main before the
// router starts serving.
func Setup(d Dependencies) {
	deps = d
}
