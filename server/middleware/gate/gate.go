// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package gate

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/blocklist"
	"github.com/nivelo/nivelo/core/session"
	"github.com/nivelo/nivelo/i18n"
	"github.com/nivelo/nivelo/server/request_context"
	"github.com/nivelo/nivelo/server/routes"
	"github.com/nivelo/nivelo/server/utils"
)

// excludedPrefixes won't have traffic filtered by the gate.
//
// API requests are authorized per endpoint instead of being gated; the
// remaining entries are infrastructure paths every client hits.
var excludedPrefixes = []string{
	"/api/",
	"/healthz",
	"/favicon.ico",
	"/robots.txt",
}

// Blocklist is the persistence the gate evaluates against.
type Blocklist interface {
	IsIPBlocked(ctx context.Context, ip string) (bool, error)
	IsPathBlocked(ctx context.Context, path string) (bool, error)
	BlockIP(ctx context.Context, ip, userAgent string) error
	BlockPath(ctx context.Context, path, description string) error
}

// Refresher keeps the caller's session alive and reports its identity.
type Refresher interface {
	Touch(w http.ResponseWriter, r *http.Request) *session.User
}

// Gate evaluates each request against the blocklist and abuse heuristic,
// then prepares surviving page requests for routing.
type Gate struct {
	blocklist Blocklist
	sessions  Refresher
	failMode  config.GateFailMode
}

// New builds a Gate with the globally configured fail mode.
func New(blocklist Blocklist, sessions Refresher) *Gate {
	return &Gate{
		blocklist: blocklist,
		sessions:  sessions,
		failMode:  config.Global.Gate.FailMode,
	}
}

// Evaluate is the entrypoint to the gate middleware.
func (g *Gate) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path

	// 1: Fast-path exclusions. API requests still get a session attached so
	// per-endpoint authorization can rely on it.
	if isExcludedPath(path) {
		if strings.HasPrefix(path, "/api/") {
			g.attachSession(w, r)
		}

		next.ServeHTTP(w, r)

		return
	}

	ctx := r.Context()
	ip := utils.ClientIP(r)

	// 2: Explicitly blocked IPs are rejected before anything else.
	ipBlocked, err := g.blocklist.IsIPBlocked(ctx, ip)
	if err != nil {
		g.fail(w, r, next, err)

		return
	}

	if ipBlocked {
		log.Warn().
			Str("ip", ip).
			Str("path", path).
			Msg("Request blocked, IP in block-list")

		routes.BlockPage(w, http.StatusForbidden)

		return
	}

	// 3: Abusive paths. A suspicious path not yet covered by a persisted
	// prefix is recorded first; either way the caller's IP is added to the
	// block-list before rejecting.
	covered, err := g.blocklist.IsPathBlocked(ctx, path)
	if err != nil {
		g.fail(w, r, next, err)

		return
	}

	token, suspicious := blocklist.MatchToken(path)

	if suspicious && !covered {
		if err := g.blocklist.BlockPath(ctx, path, token); err != nil {
			g.fail(w, r, next, err)

			return
		}
	}

	if suspicious || covered {
		if err := g.blocklist.BlockIP(ctx, ip, r.UserAgent()); err != nil {
			g.fail(w, r, next, err)

			return
		}

		log.Warn().
			Str("ip", ip).
			Str("path", path).
			Bool("heuristic", suspicious).
			Msg("Request blocked, abusive path")

		routes.BlockPage(w, http.StatusForbidden)

		return
	}

	// 4: Locale routing and session upkeep.
	g.forward(w, r, next)
}

// AttachOnly skips the filtering stages but keeps locale routing and
// session upkeep. Used in place of Evaluate when gating is disabled.
func (g *Gate) AttachOnly(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if isExcludedPath(r.URL.Path) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			g.attachSession(w, r)
		}

		next.ServeHTTP(w, r)

		return
	}

	g.forward(w, r, next)
}

// forward routes a surviving page request to its localized form and keeps
// the caller's session alive.
func (g *Gate) forward(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path

	// The bare root goes to the default-locale root.
	if path == "/" {
		http.Redirect(w, r, "/"+i18n.BaseLocale, http.StatusTemporaryRedirect)

		return
	}

	// Page paths without a locale segment redirect to their localized form.
	if _, _, ok := i18n.SplitLocale(path); !ok {
		http.Redirect(w, r, i18n.PathWithLocale(i18n.FromRequest(r), path), http.StatusTemporaryRedirect)

		return
	}

	// Session refresh failure degrades to an anonymous request.
	g.attachSession(w, r)

	next.ServeHTTP(w, r)
}

// attachSession refreshes the caller's session and stores the identity in
// the request context.
func (g *Gate) attachSession(w http.ResponseWriter, r *http.Request) {
	if user := g.sessions.Touch(w, r); user != nil {
		request_context.FromRequest(r).User = user
	}
}

// fail applies the configured fail mode to a blocklist I/O error.
func (g *Gate) fail(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	log.Error().
		Err(err).
		Str("path", r.URL.Path).
		Str("fail_mode", string(g.failMode)).
		Msg("Gate evaluation failed")

	// Fail-open treats the lookup as a no-match, so the request still gets
	// locale routing and session upkeep.
	if g.failMode == config.FailOpen {
		g.forward(w, r, next)

		return
	}

	rc := request_context.FromRequest(r)
	rc.RequestError = err
	rc.StatusCode = http.StatusInternalServerError

	routes.ErrorResponse(w, r)
}

// isExcludedPath returns true if the path is exempt from gating.
func isExcludedPath(path string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
