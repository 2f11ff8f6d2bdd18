// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package blocklist persists the set of blocked client IPs and blocked path
prefixes consulted by the request gate on every non-excluded request.

Writes are always upserts keyed by ip / path, so concurrent first-time
offenders racing on the same path converge on a single row without an
application-level lock.
*/
package blocklist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// BlockedIP is a row of the blocked_ips table.
type BlockedIP struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// BlockedPath is a row of the blocked_paths table.
type BlockedPath struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Store provides blocklist lookups and upserts backed by Postgres.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store using the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsIPBlocked reports whether ip has a blocked_ips row.
func (s *Store) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM blocked_ips WHERE ip = $1)`,
		ip,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("blocked ip lookup failed: %w", err)
	}

	return exists, nil
}

// IsPathBlocked reports whether any stored blocked path is a prefix of path.
//
// The full path list is fetched and matched in-process; the list stays small
// because entries are only ever created once per unique probe path.
func (s *Store) IsPathBlocked(ctx context.Context, path string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM blocked_paths`)
	if err != nil {
		return false, fmt.Errorf("blocked path list failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stored string
		if err := rows.Scan(&stored); err != nil {
			return false, fmt.Errorf("blocked path scan failed: %w", err)
		}

		if strings.HasPrefix(path, stored) {
			return true, nil
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("blocked path iteration failed: %w", err)
	}

	return false, nil
}

// BlockIP upserts a blocked_ips row. Last write wins on user_agent.
func (s *Store) BlockIP(ctx context.Context, ip, userAgent string) error {
	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO blocked_ips (ip, user_agent)
			VALUES ($1, $2)
			ON CONFLICT (ip) DO UPDATE SET user_agent = EXCLUDED.user_agent;
		`,
		ip,
		userAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to block ip %s: %w", ip, err)
	}

	return nil
}

// BlockPath upserts a blocked_paths row. The first description wins; the
// conflict clause only exists to absorb concurrent first inserts.
func (s *Store) BlockPath(ctx context.Context, path, description string) error {
	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO blocked_paths (path, description)
			VALUES ($1, $2)
			ON CONFLICT (path) DO NOTHING;
		`,
		path,
		description,
	)
	if err != nil {
		return fmt.Errorf("failed to block path %s: %w", path, err)
	}

	return nil
}

// ListIPs returns every blocked_ips row, most recently blocked last.
func (s *Store) ListIPs(ctx context.Context) ([]BlockedIP, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ip, user_agent FROM blocked_ips ORDER BY ip`)
	if err != nil {
		return nil, fmt.Errorf("blocked ip list failed: %w", err)
	}
	defer rows.Close()

	var out []BlockedIP

	for rows.Next() {
		var row BlockedIP
		if err := rows.Scan(&row.IP, &row.UserAgent); err != nil {
			return nil, fmt.Errorf("blocked ip scan failed: %w", err)
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// ListPaths returns every blocked_paths row.
func (s *Store) ListPaths(ctx context.Context) ([]BlockedPath, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, description FROM blocked_paths ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("blocked path list failed: %w", err)
	}
	defer rows.Close()

	var out []BlockedPath

	for rows.Next() {
		var row BlockedPath
		if err := rows.Scan(&row.Path, &row.Description); err != nil {
			return nil, fmt.Errorf("blocked path scan failed: %w", err)
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// UnblockIP removes a blocked_ips row. Removing an absent row is not an error.
func (s *Store) UnblockIP(ctx context.Context, ip string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocked_ips WHERE ip = $1`, ip); err != nil {
		return fmt.Errorf("failed to unblock ip %s: %w", ip, err)
	}

	return nil
}

// UnblockPath removes a blocked_paths row.
func (s *Store) UnblockPath(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocked_paths WHERE path = $1`, path); err != nil {
		return fmt.Errorf("failed to unblock path %s: %w", path, err)
	}

	return nil
}
