// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

// genconfig regenerates the example configuration files under deploy/ from
// the config struct tags, so the examples can never drift from the code.
package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644

	envFileHeader = `# Nivelo configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# Nivelo configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
)

// secretEnvVars are emitted commented out with no value so real credentials
// never end up in the committed examples.
var secretEnvVars = map[string]bool{
	"NIVELO_DATABASE_DSN":      true,
	"NIVELO_AUTH_ANON_KEY":     true,
	"NIVELO_AUTH_JWT_SECRET":   true,
	"NIVELO_STRIPE_SECRET_KEY": true,
}

func main() {
	audit.SetDefaultLogger()
	generateEnvFile()
	generateYAMLFile()
}

// generateEnvFile generates the deploy/.env.example file.
func generateEnvFile() {
	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	// Iterate over the top-level struct fields.
	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct || structField.Name == "Build" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", structField.Name)

		// Iterate over the fields of the nested struct.
		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			field := innerTyp.Field(j)
			value := structValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			envVarName := strings.Split(tag, ",")[0]

			switch {
			case secretEnvVars[envVarName]:
				fmt.Fprintf(&sb, "# %s=\n", envVarName)
			case envVarName == "NIVELO_PORT" || envVarName == "NIVELO_HOST":
				// Uncomment essential fields.
				fmt.Fprintf(&sb, "%s=\"%v\"\n", envVarName, value.Interface())
			default:
				// For other fields, comment them out. If the value is a slice
				// or an empty string, omit the value to prompt user input.
				if value.Kind() == reflect.Slice || (value.Kind() == reflect.String && value.Len() == 0) {
					fmt.Fprintf(&sb, "# %s=\n", envVarName)
				} else {
					fmt.Fprintf(&sb, "# %s=%v\n", envVarName, value.Interface())
				}
			}
		}

		sb.WriteString("\n")
	}

	if err := os.WriteFile(envOutputFile, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", envOutputFile).Msg("Failed to write .env.example file")
	}

	log.Info().Str("path", envOutputFile).Msg("Successfully generated .env.example")
}

// generateYAMLFile generates the deploy/config.yaml.example file.
func generateYAMLFile() {
	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	var yamlContent strings.Builder
	// Marshal the config to YAML.
	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	// Process the marshaled YAML line-by-line to create a clean template.
	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "basic:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)
			continue
		}

		// By default, comment out the line.
		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	if err := os.WriteFile(yamlOutputFile, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", yamlOutputFile).Msg("Failed to write config file")
	}

	log.Info().Str("path", yamlOutputFile).Msg("Successfully generated config.yaml.example")
}
