// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Nivelo is the backend for the Nivelo language-assessment site.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/audit"
	"github.com/nivelo/nivelo/core/billing"
	"github.com/nivelo/nivelo/core/blocklist"
	"github.com/nivelo/nivelo/core/contact"
	"github.com/nivelo/nivelo/core/session"
	"github.com/nivelo/nivelo/core/store"
	"github.com/nivelo/nivelo/i18n"
	"github.com/nivelo/nivelo/server/middleware/gate"
	"github.com/nivelo/nivelo/server/router"
	"github.com/nivelo/nivelo/server/routes"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 10 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
//
//nolint:funlen
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := i18n.Setup(); err != nil {
		return fmt.Errorf("failed to initialize i18n engine: %w", err)
	}

	log.Info().Msg("Initialized i18n engine")

	db, err := store.Open(context.Background())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log.Info().Msg("Connected to database")

	// Wire up the route dependencies.
	provider := billing.NewStripeProvider()
	mirror := billing.NewMirrorStore(db)
	blocked := blocklist.NewStore(db)
	sessions := session.NewRefresher(session.NewClient())

	routes.Setup(routes.Dependencies{
		DB:        db,
		Blocklist: blocked,
		Contacts:  contact.NewStore(db),
		ContactLimiter: contact.NewRateLimiter(
			config.Global.Contact.RatePerMinute,
			config.Global.Contact.Burst,
		),
		Mirror:     mirror,
		Provider:   provider,
		Reconciler: billing.NewReconciler(provider, mirror),
	})

	router := router.NewRouter()
	router.DefineRoutes()
	router.RegisterMiddleware(gate.New(blocked, sessions))

	// Create http.Server instance
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Channel to listen for server errors
	serverErrors := make(chan error, 1)

	// Start main server in a goroutine
	go func() {
		listener, err := chooseListener()
		if err != nil {
			serverErrors <- fmt.Errorf("failed to create listener: %w", err)

			return
		}

		serverErrors <- server.Serve(listener)
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal or a server error is received
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case s := <-quit:
		log.Info().Str("signal", s.String()).Msg("Shutdown signal received")
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)

		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

func chooseListener() (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if config.Global.Basic.UnixSocket != "" {
		unixAddr := config.Global.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err = setupSocket(); err != nil {
			_ = unixListener.Close()

			return nil, err
		}

		// Assign the listener and log where we are listening
		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	// Otherwise, fall back to TCP listener
	addr := net.JoinHostPort(config.Global.Basic.Host, config.Global.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	// Extract the port for logging
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	// Log the address and convenient URL for local development
	log.Info().
		Str("address", addr).
		Str("port", port).
		Str("url", fmt.Sprintf("http://localhost:%v/", port)).
		Msg("Listening on address")

	return tcpListener, nil
}

func setupSocket() error {
	cfg := config.Global.Basic

	if cfg.UnixSocket == "" {
		return nil
	}

	uid, gid := -1, -1

	var err error

	if cfg.UnixSocketUser != "" {
		uid, err = parseUserOrGroupID(cfg.UnixSocketUser, "user")
		if err != nil {
			return err
		}
	}

	if cfg.UnixSocketGroup != "" {
		gid, err = parseUserOrGroupID(cfg.UnixSocketGroup, "group")
		if err != nil {
			return err
		}
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(cfg.UnixSocket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	if err := os.Chmod(cfg.UnixSocket, cfg.UnixSocketPermissions); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

// parseUserOrGroupID attempts to parse a user or group identifier.
//
// It first tries to convert the value to an integer. If that fails, it
// performs a system lookup for the given kind ("user" or "group").
func parseUserOrGroupID(value, kind string) (int, error) {
	// Try to parse as a numeric ID first.
	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}

	// If parsing fails, assume it's a name and look it up.
	var idStr string

	if kind == "user" {
		u, err := user.Lookup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup user '%s': %w", value, err)
		}

		idStr = u.Uid
	} else { // kind == "group"
		g, err := user.LookupGroup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup group '%s': %w", value, err)
		}

		idStr = g.Gid
	}

	// Parse the ID from the looked-up struct.
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return -1, fmt.Errorf("failed to parse %s ID from looked-up value '%s': %w", kind, value, err)
	}

	return id, nil
}
