// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoSubscription is returned when a user has no mirror row.
var ErrNoSubscription = errors.New("no subscription found")

// MirrorStore persists the local read mirror of provider billing state.
//
// All writes are upserts keyed by the provider object ID; the mirror can be
// rebuilt from the provider at any time, so last writer wins.
type MirrorStore struct {
	db *sql.DB
}

func NewMirrorStore(db *sql.DB) *MirrorStore {
	return &MirrorStore{db: db}
}

func (s *MirrorStore) UpsertSubscription(ctx context.Context, sub *Subscription) error {
	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO subscriptions (
				user_id, stripe_customer_id, stripe_subscription_id,
				stripe_price_id, status, current_period_start,
				current_period_end, cancel_at_period_end, canceled_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (stripe_subscription_id) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				stripe_customer_id = EXCLUDED.stripe_customer_id,
				stripe_price_id = EXCLUDED.stripe_price_id,
				status = EXCLUDED.status,
				current_period_start = EXCLUDED.current_period_start,
				current_period_end = EXCLUDED.current_period_end,
				cancel_at_period_end = EXCLUDED.cancel_at_period_end,
				canceled_at = EXCLUDED.canceled_at,
				updated_at = now();
		`,
		sub.UserID,
		nullString(sub.StripeCustomerID),
		sub.StripeSubscriptionID,
		sub.StripePriceID,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.CanceledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", sub.StripeSubscriptionID, err)
	}

	return nil
}

// SubscriptionForUser returns the user's most recent mirror row.
func (s *MirrorStore) SubscriptionForUser(ctx context.Context, userID string) (*Subscription, error) {
	var (
		sub        Subscription
		customerID sql.NullString
		canceledAt sql.NullTime
	)

	err := s.db.QueryRowContext(
		ctx,
		`
			SELECT user_id, stripe_customer_id, stripe_subscription_id,
			       stripe_price_id, status, current_period_start,
			       current_period_end, cancel_at_period_end, canceled_at
			FROM subscriptions
			WHERE user_id = $1
			ORDER BY current_period_start DESC
			LIMIT 1;
		`,
		userID,
	).Scan(
		&sub.UserID,
		&customerID,
		&sub.StripeSubscriptionID,
		&sub.StripePriceID,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&canceledAt,
	)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNoSubscription
	case err != nil:
		return nil, fmt.Errorf("failed to load subscription for user %s: %w", userID, err)
	}

	sub.StripeCustomerID = customerID.String

	if canceledAt.Valid {
		t := canceledAt.Time
		sub.CanceledAt = &t
	}

	return &sub, nil
}

// CustomerIDForUser returns the provider customer ID recorded for a user,
// or an empty string when none is known yet.
func (s *MirrorStore) CustomerIDForUser(ctx context.Context, userID string) (string, error) {
	var customerID sql.NullString

	err := s.db.QueryRowContext(
		ctx,
		`
			SELECT stripe_customer_id
			FROM subscriptions
			WHERE user_id = $1 AND stripe_customer_id IS NOT NULL
			ORDER BY current_period_start DESC
			LIMIT 1;
		`,
		userID,
	).Scan(&customerID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to look up customer for user %s: %w", userID, err)
	}

	return customerID.String, nil
}

func (s *MirrorStore) UpsertProduct(ctx context.Context, prod *Product) error {
	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO products (id, active, name, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				active = EXCLUDED.active,
				name = EXCLUDED.name,
				description = EXCLUDED.description;
		`,
		prod.ID,
		prod.Active,
		prod.Name,
		prod.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", prod.ID, err)
	}

	return nil
}

func (s *MirrorStore) UpsertPrice(ctx context.Context, pr *Price) error {
	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO prices (id, product_id, active, currency, unit_amount, recurring_interval)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				product_id = EXCLUDED.product_id,
				active = EXCLUDED.active,
				currency = EXCLUDED.currency,
				unit_amount = EXCLUDED.unit_amount,
				recurring_interval = EXCLUDED.recurring_interval;
		`,
		pr.ID,
		pr.ProductID,
		pr.Active,
		pr.Currency,
		pr.UnitAmount,
		pr.Interval,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price %s: %w", pr.ID, err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
