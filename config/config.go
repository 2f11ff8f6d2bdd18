// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Global exposes the server configuration.
var Global ServerConfig

// Possible values for GateFailMode.
const (
	FailClosed GateFailMode = "closed"
	FailOpen   GateFailMode = "open"
)

// GateFailMode decides what the request gate does when a blocklist lookup
// fails: "closed" rejects the request with a generic server error, "open"
// forwards it as if the lookup had returned no match.
type GateFailMode string

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"NIVELO_HOST,overwrite"           yaml:"host"`
		Port                     string      `env:"NIVELO_PORT,overwrite"           yaml:"port"`
		UnixSocket               string      `env:"NIVELO_UNIXSOCKET"               yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"NIVELO_UNIXSOCKET_PERMISSIONS"   yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"NIVELO_UNIXSOCKET_USER"          yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"NIVELO_UNIXSOCKET_GROUP"         yaml:"unixSocketGroup"`
		SiteURL                  string      `env:"NIVELO_SITE_URL,overwrite"       yaml:"siteUrl"`
	} `yaml:"basic"`

	Database struct {
		DSN          string        `env:"NIVELO_DATABASE_DSN"                     yaml:"dsn"`
		MaxOpenConns int           `env:"NIVELO_DATABASE_MAX_OPEN_CONNS,overwrite" yaml:"maxOpenConns"`
		PingTimeout  time.Duration `env:"NIVELO_DATABASE_PING_TIMEOUT,overwrite"   yaml:"pingTimeout"`
	} `yaml:"database"`

	Auth struct {
		// Base URL of the external auth backend, e.g. "https://abc.supabase.co/auth/v1".
		BackendURL string `env:"NIVELO_AUTH_URL,overwrite" yaml:"backendUrl"`
		// Public (anon) API key sent with refresh requests. Its absence is a
		// warning rather than a startup failure; only session refresh degrades.
		AnonKey string `env:"NIVELO_AUTH_ANON_KEY" yaml:"anonKey"`
		// Shared secret used to verify access-token signatures (HS256).
		JWTSecret      string        `env:"NIVELO_AUTH_JWT_SECRET"                  yaml:"jwtSecret"`
		RefreshTimeout time.Duration `env:"NIVELO_AUTH_REFRESH_TIMEOUT,overwrite"   yaml:"refreshTimeout"`
	} `yaml:"auth"`

	Stripe struct {
		SecretKey      string `env:"NIVELO_STRIPE_SECRET_KEY"               yaml:"secretKey"`
		PublishableKey string `env:"NIVELO_STRIPE_PUBLISHABLE_KEY"          yaml:"publishableKey"`
		PriceMonthly   string `env:"NIVELO_STRIPE_PRICE_MONTHLY,overwrite"  yaml:"priceMonthly"`
		PriceYearly    string `env:"NIVELO_STRIPE_PRICE_YEARLY,overwrite"   yaml:"priceYearly"`
	} `yaml:"stripe"`

	Gate struct {
		Enabled  bool         `env:"NIVELO_GATE,overwrite"           yaml:"enabled"`
		FailMode GateFailMode `env:"NIVELO_GATE_FAIL_MODE,overwrite" yaml:"failMode"`
	} `yaml:"gate"`

	Contact struct {
		// Sustained submissions allowed per client IP per minute, and the
		// burst tolerated on top of it.
		RatePerMinute int `env:"NIVELO_CONTACT_RATE_PER_MINUTE,overwrite" yaml:"ratePerMinute"`
		Burst         int `env:"NIVELO_CONTACT_BURST,overwrite"           yaml:"burst"`
	} `yaml:"contact"`

	Development struct {
		InDevelopment bool `env:"NIVELO_IN_DEVELOPMENT,overwrite" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"NIVELO_LOG_LEVEL,overwrite"   yaml:"logLevel"`
		Outputs []string `env:"NIVELO_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"NIVELO_LOG_FORMAT,overwrite"  yaml:"logFormat"`
	} `yaml:"log"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (-config)
	// 2. Environment variable (NIVELO_CONFIGFILE)
	// 3. Default path with fallback check
	if configFlagUserSet {
		configFilePath = parsedConfigFlagValue
	} else if envVar := os.Getenv("NIVELO_CONFIGFILE"); envVar != "" {
		configFilePath = envVar
	} else {
		configFilePath = parsedConfigFlagValue
		// Fallback check for "./config.yml".
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

var staticSkippedPathPrefixes = []string{"/favicon.ico", "/robots.txt", "/healthz"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	for _, prefix := range staticSkippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
