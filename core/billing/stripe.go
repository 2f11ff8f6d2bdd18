// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package billing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/audit"
)

// userIDMetadataKey links provider objects back to our user IDs.
const userIDMetadataKey = "user_id"

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	siteURL string
}

// NewStripeProvider wires the global Stripe API key and returns the provider.
func NewStripeProvider() *StripeProvider {
	stripe.Key = config.Global.Stripe.SecretKey

	return &StripeProvider{siteURL: config.Global.Basic.SiteURL}
}

// observe opens an audit span for an outgoing provider call. The returned
// function records the outcome and emits the span.
func observe(ctx context.Context, method, endpoint string) func(err error) {
	span := audit.Span{
		Destination: audit.ToStripe,
		RequestID:   audit.RequestIDFrom(ctx),
		Method:      method,
		URL:         endpoint,
	}

	_ = span.Begin(ctx)

	return func(err error) {
		span.Error = err
		span.End()
		span.Log()
	}
}

func (p *StripeProvider) EnsureCustomer(ctx context.Context, userID, email, existingID string) (string, error) {
	if existingID != "" {
		return existingID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			userIDMetadataKey: userID,
		},
	}
	params.Context = ctx

	done := observe(ctx, http.MethodPost, "/v1/customers")

	cust, err := customer.New(params)

	done(err)

	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	return cust.ID, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	done := observe(ctx, http.MethodGet, "/v1/subscriptions/"+id)

	sub, err := subscription.Get(id, params)

	done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}

	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	done := observe(ctx, http.MethodPost, "/v1/subscriptions/"+id)

	sub, err := subscription.Update(id, params)

	done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to cancel subscription %s: %w", id, err)
	}

	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) ListActiveProducts(ctx context.Context) ([]Product, error) {
	params := &stripe.ProductListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx

	var products []Product

	done := observe(ctx, http.MethodGet, "/v1/products")

	iter := product.List(params)
	for iter.Next() {
		prod := iter.Product()
		products = append(products, Product{
			ID:          prod.ID,
			Active:      prod.Active,
			Name:        prod.Name,
			Description: prod.Description,
		})
	}

	err := iter.Err()

	done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (p *StripeProvider) ListActivePrices(ctx context.Context) ([]Price, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx

	var prices []Price

	done := observe(ctx, http.MethodGet, "/v1/prices")

	iter := price.List(params)
	for iter.Next() {
		pr := iter.Price()

		mapped := Price{
			ID:         pr.ID,
			Active:     pr.Active,
			Currency:   string(pr.Currency),
			UnitAmount: pr.UnitAmount,
		}
		if pr.Product != nil {
			mapped.ProductID = pr.Product.ID
		}

		if pr.Recurring != nil {
			mapped.Interval = string(pr.Recurring.Interval)
		}

		prices = append(prices, mapped)
	}

	err := iter.Err()

	done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}

	return prices, nil
}

func (p *StripeProvider) NewCheckoutSession(ctx context.Context, customerID, priceID, userID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				userIDMetadataKey: userID,
			},
		},
		SuccessURL: stripe.String(p.siteURL + "/es/cuenta?checkout=success"),
		CancelURL:  stripe.String(p.siteURL + "/es/precios?checkout=cancel"),
	}
	params.Context = ctx

	done := observe(ctx, http.MethodPost, "/v1/checkout/sessions")

	sess, err := session.New(params)

	done(err)

	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess.URL, nil
}

func (p *StripeProvider) NewPortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(p.siteURL + "/es/cuenta"),
	}
	params.Context = ctx

	done := observe(ctx, http.MethodPost, "/v1/billing_portal/sessions")

	sess, err := portal.New(params)

	done(err)

	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return sess.URL, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	mapped := &Subscription{
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}

	if sub.Customer != nil {
		mapped.StripeCustomerID = sub.Customer.ID
	}

	if sub.Metadata != nil {
		mapped.UserID = sub.Metadata[userIDMetadataKey]
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		mapped.StripePriceID = sub.Items.Data[0].Price.ID
	}

	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		mapped.CanceledAt = &t
	}

	return mapped
}
