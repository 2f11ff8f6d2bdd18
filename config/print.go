// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Msg("Starting Nivelo")

	// Redact sensitive fields using a shallow copy of the config.
	printableConfig := *cfg

	if printableConfig.Database.DSN != "" {
		printableConfig.Database.DSN = redactedValue
	}

	printableConfig.Auth.JWTSecret = redactedValue
	printableConfig.Stripe.SecretKey = redactedValue

	if printableConfig.Auth.AnonKey != "" {
		printableConfig.Auth.AnonKey = redactedValue
	}

	// Marshal the processed config to indented YAML.
	configYAML, err := yaml.MarshalWithOptions(
		printableConfig,
		GetDurationEncoderOption(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}
