// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/server/middleware"
	"github.com/nivelo/nivelo/server/middleware/gate"
	"github.com/nivelo/nivelo/server/middleware/set_request_context"
)

func (router *Router) RegisterMiddleware(g *gate.Gate) {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all responses need this
	router.Use(middleware.WithCompression)

	// Locale routing and session upkeep live in the gate; with gating
	// disabled only the filtering stages are dropped.
	if config.Global.Gate.Enabled {
		router.Use(g.Evaluate)
	} else {
		router.Use(g.AttachOnly)
	}
}
