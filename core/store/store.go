// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package store owns the Postgres connection pool shared by the blocklist,
billing mirror and contact inbox code.

The schema itself is managed outside this process (see migrations/schema.sql);
Open only verifies that the database is reachable.
*/
package store

import (
	"context"
	"database/sql"
	"fmt"

	// Postgres driver, registered for database/sql.
	_ "github.com/lib/pq"

	"github.com/nivelo/nivelo/config"
)

// Open connects to Postgres using the configured DSN and verifies the
// connection with a ping bounded by the configured timeout.
func Open(ctx context.Context) (*sql.DB, error) {
	cfg := config.Global.Database

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
