// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/server/utils"
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
)

// validation errors.
var (
	errUnixSocketInvalidPerms = errors.New("invalid basic.unixSocketPermissions value")
	errDatabaseDSNRequired    = errors.New("database.dsn is required")
	errAuthBackendURLRequired = errors.New("auth.backendUrl is required")
	errAuthBackendURLInvalid  = errors.New("auth.backendUrl is not a valid http(s) URL")
	errAuthJWTSecretRequired  = errors.New("auth.jwtSecret is required")
	errStripeSecretKeyMissing = errors.New("stripe.secretKey is required")
	errStripePriceRequired    = errors.New("stripe.priceMonthly is required")
	errSiteURLInvalid         = errors.New("basic.siteUrl is not a valid http(s) URL")
	errInvalidGateFailMode    = errors.New("invalid gate.failMode (must be \"closed\" or \"open\")")
	errInvalidContactRate     = errors.New("contact.ratePerMinute and contact.burst must be positive")
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	// A unix socket takes precedence over the TCP listener.
	if cfg.Basic.UnixSocket != "" {
		cfg.Basic.Host = ""
		cfg.Basic.Port = ""

		// Handle unix socket permissions
		switch {
		case cfg.Basic.RawUnixSocketPermissions == "":
			cfg.Basic.UnixSocketPermissions = 0o666
		case fileModeOctalRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
			rawModeUint64, _ := strconv.ParseUint(cfg.Basic.RawUnixSocketPermissions, 8, 32)

			cfg.Basic.UnixSocketPermissions = os.FileMode(rawModeUint64)
		case fileModeStringRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
			mode := os.FileMode(0)

			for i, c := range cfg.Basic.RawUnixSocketPermissions {
				// If permission bit is set
				if c != '-' {
					// Set i-th bit from the end
					const bitsInByte = 8

					mode |= 1 << (bitsInByte - i)
				}
			}

			cfg.Basic.UnixSocketPermissions = mode
		default:
			return errUnixSocketInvalidPerms
		}
	}

	siteURL, err := parseHTTPURL(cfg.Basic.SiteURL, "Site", errSiteURLInvalid)
	if err != nil {
		return err
	}

	cfg.Basic.SiteURL = siteURL.String()

	if cfg.Database.DSN == "" {
		return errDatabaseDSNRequired
	}

	if cfg.Auth.BackendURL == "" {
		return errAuthBackendURLRequired
	}

	backendURL, err := parseHTTPURL(cfg.Auth.BackendURL, "Auth backend", errAuthBackendURLInvalid)
	if err != nil {
		return err
	}

	cfg.Auth.BackendURL = backendURL.String()

	if cfg.Auth.JWTSecret == "" {
		return errAuthJWTSecretRequired
	}

	if cfg.Stripe.SecretKey == "" {
		return errStripeSecretKeyMissing
	}

	if cfg.Stripe.PriceMonthly == "" {
		return errStripePriceRequired
	}

	// A missing publishable key only degrades the client-side checkout
	// experience, so it is surfaced as a warning rather than a hard failure.
	if cfg.Stripe.PublishableKey == "" {
		log.Warn().
			Msg("stripe.publishableKey is not set; clients will be warned that checkout is unavailable")
	}

	switch cfg.Gate.FailMode {
	case FailClosed, FailOpen:
		// valid
	default:
		return errInvalidGateFailMode
	}

	if cfg.Contact.RatePerMinute <= 0 || cfg.Contact.Burst <= 0 {
		return errInvalidContactRate
	}

	return nil
}

// parseHTTPURL parses and normalizes a configured URL, additionally
// requiring an http(s) scheme.
func parseHTTPURL(raw, urlType string, sentinel error) (*url.URL, error) {
	parsed, err := utils.ParseURL(raw, urlType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sentinel, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", sentinel, raw)
	}

	return parsed, nil
}
