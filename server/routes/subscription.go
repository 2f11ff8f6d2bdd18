// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"github.com/nivelo/nivelo/core/billing"
)

// BillingPortal returns a hosted billing-portal URL for the caller's
// provider customer.
func BillingPortal(w http.ResponseWriter, r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}

	ctx := r.Context()

	customerID, err := deps.Mirror.CustomerIDForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	if customerID == "" {
		return NotFound("no billing account for user")
	}

	url, err := deps.Provider.NewPortalSession(ctx, customerID)
	if err != nil {
		return Upstream("failed to create portal session", err.Error())
	}

	WriteJSON(w, http.StatusOK, urlResponse{URL: url})

	return nil
}

// SubscriptionCancel flags the caller's subscription for cancellation at
// period end and returns the re-synced mirror row.
func SubscriptionCancel(w http.ResponseWriter, r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}

	ctx := r.Context()

	current, err := deps.Mirror.SubscriptionForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			return NotFound("no subscription found")
		}

		return err
	}

	sub, err := deps.Reconciler.CancelSubscription(ctx, user.ID, current.StripeSubscriptionID)
	if err != nil {
		return Upstream("failed to cancel subscription", err.Error())
	}

	WriteJSON(w, http.StatusOK, subscriptionResponse{Success: true, Subscription: sub})

	return nil
}

// SubscriptionUser returns the caller's mirror row.
func SubscriptionUser(w http.ResponseWriter, r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}

	sub, err := deps.Mirror.SubscriptionForUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			return NotFound("no subscription found")
		}

		return err
	}

	WriteJSON(w, http.StatusOK, sub)

	return nil
}
