// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/billing"
)

type checkoutRequest struct {
	Plan string `json:"plan"` // "monthly" (default) or "yearly"
}

type urlResponse struct {
	URL string `json:"url"`
}

type syncRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type subscriptionResponse struct {
	Success      bool                  `json:"success"`
	Subscription *billing.Subscription `json:"subscription"`
}

// StripeCheckout creates a hosted checkout session for the configured price
// and returns its URL.
func StripeCheckout(w http.ResponseWriter, r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}

	var priceID string

	switch req.Plan {
	case "", "monthly":
		priceID = config.Global.Stripe.PriceMonthly
	case "yearly":
		priceID = config.Global.Stripe.PriceYearly
	default:
		return BadRequest("unknown plan: " + req.Plan)
	}

	ctx := r.Context()

	existing, err := deps.Mirror.CustomerIDForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	customerID, err := deps.Provider.EnsureCustomer(ctx, user.ID, user.Email, existing)
	if err != nil {
		return Upstream("failed to prepare billing", err.Error())
	}

	url, err := deps.Provider.NewCheckoutSession(ctx, customerID, priceID, user.ID)
	if err != nil {
		return Upstream("failed to create checkout session", err.Error())
	}

	WriteJSON(w, http.StatusOK, urlResponse{URL: url})

	return nil
}

// StripeSync pulls the authoritative subscription state from the provider
// into the local mirror. The frontend calls it after checkout completes.
func StripeSync(w http.ResponseWriter, r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}

	var req syncRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}

	if req.SubscriptionID == "" {
		return BadRequest("subscriptionId is required")
	}

	sub, err := deps.Reconciler.SyncSubscription(r.Context(), user.ID, req.SubscriptionID)
	if err != nil {
		return Upstream("failed to sync subscription", err.Error())
	}

	WriteJSON(w, http.StatusOK, subscriptionResponse{Success: true, Subscription: sub})

	return nil
}
