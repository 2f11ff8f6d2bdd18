// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default database pool size.
	defaultMaxOpenConns = 10
	// Default database ping timeout in seconds.
	defaultPingTimeoutSeconds = 5

	// Default auth backend refresh call timeout in seconds.
	defaultRefreshTimeoutSeconds = 10

	// Default contact endpoint rate limit.
	defaultContactRatePerMinute = 3
	defaultContactBurst         = 5
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8484"
	cfg.Basic.SiteURL = "http://localhost:8484"

	cfg.Database.MaxOpenConns = defaultMaxOpenConns
	cfg.Database.PingTimeout = defaultPingTimeoutSeconds * time.Second

	cfg.Auth.RefreshTimeout = defaultRefreshTimeoutSeconds * time.Second

	cfg.Gate.Enabled = true
	cfg.Gate.FailMode = FailClosed

	cfg.Contact.RatePerMinute = defaultContactRatePerMinute
	cfg.Contact.Burst = defaultContactBurst

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
