// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package billing integrates the Stripe-backed subscription flow.

Stripe remains the source of truth for all billing state; this package keeps
a local read mirror (subscriptions, products, prices) that is rebuilt by
explicit sync calls and is never authoritative. There is no webhook pipeline:
the frontend drives synchronization through the sync endpoints after
checkout and cancellation.
*/
package billing

import (
	"context"
	"time"
)

// Subscription is a mirror row of a provider subscription.
type Subscription struct {
	UserID               string     `json:"userId"`
	StripeCustomerID     string     `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId"`
	StripePriceID        string     `json:"stripePriceId"`
	Status               string     `json:"status"`
	CurrentPeriodStart   time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time  `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool       `json:"cancelAtPeriodEnd"`
	CanceledAt           *time.Time `json:"canceledAt,omitempty"`
}

// Product is a mirror row of a provider product.
type Product struct {
	ID          string `json:"id"`
	Active      bool   `json:"active"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Price is a mirror row of a provider price.
type Price struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Active     bool   `json:"active"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unitAmount"`
	Interval   string `json:"interval,omitempty"`
}

// Provider abstracts the payments provider. The only implementation outside
// of tests is the Stripe one.
type Provider interface {
	// EnsureCustomer returns the provider customer ID for a user, creating
	// the customer when none exists yet.
	EnsureCustomer(ctx context.Context, userID, email, existingID string) (string, error)

	// GetSubscription fetches the authoritative subscription object.
	GetSubscription(ctx context.Context, id string) (*Subscription, error)

	// CancelAtPeriodEnd flags the subscription for cancellation at the end
	// of the current billing period and returns the updated object.
	CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error)

	// ListActiveProducts and ListActivePrices enumerate the provider catalog.
	ListActiveProducts(ctx context.Context) ([]Product, error)
	ListActivePrices(ctx context.Context) ([]Price, error)

	// NewCheckoutSession returns the hosted checkout URL for a price.
	NewCheckoutSession(ctx context.Context, customerID, priceID, userID string) (string, error)

	// NewPortalSession returns the hosted billing-portal URL for a customer.
	NewPortalSession(ctx context.Context, customerID string) (string, error)
}
