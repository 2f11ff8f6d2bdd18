// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	subscriptions map[string]*Subscription
	products      []Product
	prices        []Price
	listErr       error
}

func (f *fakeProvider) EnsureCustomer(_ context.Context, _, _, existingID string) (string, error) {
	if existingID != "" {
		return existingID, nil
	}

	return "cus_fake", nil
}

func (f *fakeProvider) GetSubscription(_ context.Context, id string) (*Subscription, error) {
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}

	copied := *sub

	return &copied, nil
}

func (f *fakeProvider) CancelAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}

	sub.CancelAtPeriodEnd = true
	now := time.Now().UTC().Truncate(time.Second)
	sub.CanceledAt = &now

	return f.GetSubscription(ctx, id)
}

func (f *fakeProvider) ListActiveProducts(context.Context) ([]Product, error) {
	return f.products, f.listErr
}

func (f *fakeProvider) ListActivePrices(context.Context) ([]Price, error) {
	return f.prices, nil
}

func (f *fakeProvider) NewCheckoutSession(context.Context, string, string, string) (string, error) {
	return "https://checkout.example/cs_fake", nil
}

func (f *fakeProvider) NewPortalSession(context.Context, string) (string, error) {
	return "https://portal.example/bps_fake", nil
}

type fakeMirror struct {
	subscriptions map[string]Subscription
	products      map[string]Product
	prices        map[string]Price
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		subscriptions: make(map[string]Subscription),
		products:      make(map[string]Product),
		prices:        make(map[string]Price),
	}
}

func (m *fakeMirror) UpsertSubscription(_ context.Context, sub *Subscription) error {
	m.subscriptions[sub.StripeSubscriptionID] = *sub

	return nil
}

func (m *fakeMirror) UpsertProduct(_ context.Context, prod *Product) error {
	m.products[prod.ID] = *prod

	return nil
}

func (m *fakeMirror) UpsertPrice(_ context.Context, pr *Price) error {
	m.prices[pr.ID] = *pr

	return nil
}

func activeSubscription() *Subscription {
	return &Subscription{
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		StripePriceID:        "price_monthly",
		Status:               "active",
		CurrentPeriodStart:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSyncSubscription(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		subscriptions: map[string]*Subscription{"sub_1": activeSubscription()},
	}
	mirror := newFakeMirror()
	rec := NewReconciler(provider, mirror)

	sub, err := rec.SyncSubscription(context.Background(), "user-1", "sub_1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, "active", sub.Status)

	stored, ok := mirror.subscriptions["sub_1"]
	require.True(t, ok, "mirror row should exist")
	assert.Equal(t, *sub, stored)

	// Syncing again with unchanged provider state leaves the same row.
	again, err := rec.SyncSubscription(context.Background(), "user-1", "sub_1")
	require.NoError(t, err)
	assert.Equal(t, stored, mirror.subscriptions["sub_1"])
	assert.Equal(t, sub, again)
}

func TestSyncSubscriptionUnknownID(t *testing.T) {
	t.Parallel()

	rec := NewReconciler(&fakeProvider{subscriptions: map[string]*Subscription{}}, newFakeMirror())

	_, err := rec.SyncSubscription(context.Background(), "user-1", "sub_missing")
	assert.Error(t, err)
}

func TestCancelSubscription(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		subscriptions: map[string]*Subscription{"sub_1": activeSubscription()},
	}
	mirror := newFakeMirror()
	rec := NewReconciler(provider, mirror)

	sub, err := rec.CancelSubscription(context.Background(), "user-1", "sub_1")
	require.NoError(t, err)

	// Provider still reports the period running, but the mirror row is
	// already canceled.
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, "canceled", sub.Status)
	require.NotNil(t, sub.CanceledAt)

	assert.Equal(t, "canceled", mirror.subscriptions["sub_1"].Status)
}

func TestSyncProductsAndPrices(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		products: []Product{
			{ID: "prod_basic", Active: true, Name: "Nivelo Basic"},
			{ID: "prod_pro", Active: true, Name: "Nivelo Pro"},
		},
		prices: []Price{
			{ID: "price_monthly", ProductID: "prod_pro", Active: true, Currency: "eur", UnitAmount: 990, Interval: "month"},
		},
	}
	mirror := newFakeMirror()
	rec := NewReconciler(provider, mirror)

	summary, err := rec.SyncProductsAndPrices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SyncSummary{Products: 2, Prices: 1}, summary)
	assert.Len(t, mirror.products, 2)
	assert.Equal(t, "eur", mirror.prices["price_monthly"].Currency)
}

func TestSyncProductsAndPricesListError(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{listErr: errors.New("stripe down")}
	mirror := newFakeMirror()

	_, err := NewReconciler(provider, mirror).SyncProductsAndPrices(context.Background())
	require.Error(t, err)

	assert.Empty(t, mirror.products)
	assert.Empty(t, mirror.prices)
}
