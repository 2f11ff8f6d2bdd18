// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MirrorWriter is the subset of MirrorStore the reconciler writes through.
type MirrorWriter interface {
	UpsertSubscription(ctx context.Context, sub *Subscription) error
	UpsertProduct(ctx context.Context, prod *Product) error
	UpsertPrice(ctx context.Context, pr *Price) error
}

// SyncSummary reports how many mirror rows a catalog sync touched.
type SyncSummary struct {
	Products int `json:"products"`
	Prices   int `json:"prices"`
}

// Reconciler copies provider billing state into the local mirror.
//
// The copy is one-way and idempotent: syncing the same object twice yields
// the same mirror row.
type Reconciler struct {
	provider Provider
	mirror   MirrorWriter
}

func NewReconciler(provider Provider, mirror MirrorWriter) *Reconciler {
	return &Reconciler{provider: provider, mirror: mirror}
}

// SyncSubscription fetches a subscription from the provider and upserts the
// mirror row keyed by its provider ID.
//
// userID records which user the row belongs to; when empty, the user ID
// carried in the provider object's metadata is kept instead.
func (rec *Reconciler) SyncSubscription(ctx context.Context, userID, subscriptionID string) (*Subscription, error) {
	sub, err := rec.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		sub.UserID = userID
	}

	sub.Status = mirrorStatus(sub)

	if err := rec.mirror.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}

	log.Debug().
		Str("subscription_id", sub.StripeSubscriptionID).
		Str("status", sub.Status).
		Msg("Synced subscription mirror")

	return sub, nil
}

// CancelSubscription flags the provider subscription for cancellation at
// period end and re-syncs the mirror row.
func (rec *Reconciler) CancelSubscription(ctx context.Context, userID, subscriptionID string) (*Subscription, error) {
	if _, err := rec.provider.CancelAtPeriodEnd(ctx, subscriptionID); err != nil {
		return nil, err
	}

	return rec.SyncSubscription(ctx, userID, subscriptionID)
}

// SyncProductsAndPrices refreshes the product and price mirrors from the
// provider's active catalog. The two list calls are independent and run
// concurrently.
func (rec *Reconciler) SyncProductsAndPrices(ctx context.Context) (SyncSummary, error) {
	var (
		products []Product
		prices   []Price
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		products, err = rec.provider.ListActiveProducts(groupCtx)

		return err
	})
	group.Go(func() error {
		var err error
		prices, err = rec.provider.ListActivePrices(groupCtx)

		return err
	})

	if err := group.Wait(); err != nil {
		return SyncSummary{}, fmt.Errorf("catalog sync failed: %w", err)
	}

	for i := range products {
		if err := rec.mirror.UpsertProduct(ctx, &products[i]); err != nil {
			return SyncSummary{}, err
		}
	}

	for i := range prices {
		if err := rec.mirror.UpsertPrice(ctx, &prices[i]); err != nil {
			return SyncSummary{}, err
		}
	}

	summary := SyncSummary{Products: len(products), Prices: len(prices)}

	log.Info().
		Int("products", summary.Products).
		Int("prices", summary.Prices).
		Msg("Synced billing catalog")

	return summary, nil
}

// mirrorStatus maps the provider status onto the mirror row.
//
// A subscription flagged to cancel at period end is already "canceled" from
// the application's point of view, even while the provider still reports it
// as active until the period actually ends.
func mirrorStatus(sub *Subscription) string {
	if sub.CancelAtPeriodEnd {
		return "canceled"
	}

	return sub.Status
}
