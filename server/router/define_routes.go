// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/server/middleware"
	"github.com/nivelo/nivelo/server/routes"
)

// DefineRoutes sets up all the routes for the application using our custom Router.
//
// It returns a *Router without middleware.
func (router *Router) DefineRoutes() {
	router.HandleFunc("GET /robots.txt", robotsTXT)

	// No favicon is shipped; without this the /{locale} pattern would
	// swallow the request.
	router.HandleFunc("GET /favicon.ico", http.NotFound)

	// Liveness probe
	router.HandleFunc("GET /api/healthz", middleware.CatchError(routes.Healthz))

	// Contact form
	router.HandleFunc("POST /api/contact", middleware.CatchError(routes.ContactSubmit))

	// Billing routes
	router.HandleFunc("POST /api/stripe/checkout", middleware.CatchError(routes.StripeCheckout))
	router.HandleFunc("POST /api/stripe/sync", middleware.CatchError(routes.StripeSync))
	router.HandleFunc("POST /api/subscription/billing-portal", middleware.CatchError(routes.BillingPortal))
	router.HandleFunc("POST /api/subscription/cancel", middleware.CatchError(routes.SubscriptionCancel))
	router.HandleFunc("GET /api/subscription/user", middleware.CatchError(routes.SubscriptionUser))

	// Admin routes
	router.HandleFunc("POST /api/admin/stripe/sync", middleware.CatchError(routes.AdminCatalogSync))
	router.HandleFunc("GET /api/admin/blocklist", middleware.CatchError(routes.AdminBlocklist))
	router.HandleFunc("DELETE /api/admin/blocklist/ip/{ip}", middleware.CatchError(routes.AdminUnblockIP))
	router.HandleFunc("DELETE /api/admin/blocklist/path/{path...}", middleware.CatchError(routes.AdminUnblockPath))

	// Localized page routes. The gate redirects bare paths here, so every
	// page pattern carries a locale segment.
	router.HandleFunc("GET /{locale}", middleware.CatchError(routes.HomePage))
	router.HandleFunc("GET /{locale}/legal/{doc}", middleware.CatchError(routes.LegalPage))

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}
}

func robotsTXT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "max-age=3600")

	_, _ = w.Write([]byte("User-agent: *\nDisallow: /api/\n"))
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	err := flightRecorder.Start()
	if err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, r *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
