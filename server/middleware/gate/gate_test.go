// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/session"
	"github.com/nivelo/nivelo/i18n"
	"github.com/nivelo/nivelo/server/request_context"
)

type fakeBlocklist struct {
	ips   map[string]string // ip -> user agent
	paths map[string]string // path -> description
	err   error
}

func newFakeBlocklist() *fakeBlocklist {
	return &fakeBlocklist{
		ips:   make(map[string]string),
		paths: make(map[string]string),
	}
}

func (f *fakeBlocklist) IsIPBlocked(_ context.Context, ip string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	_, ok := f.ips[ip]

	return ok, nil
}

func (f *fakeBlocklist) IsPathBlocked(_ context.Context, path string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	for blocked := range f.paths {
		if strings.HasPrefix(path, blocked) {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeBlocklist) BlockIP(_ context.Context, ip, userAgent string) error {
	if f.err != nil {
		return f.err
	}

	f.ips[ip] = userAgent

	return nil
}

func (f *fakeBlocklist) BlockPath(_ context.Context, path, description string) error {
	if f.err != nil {
		return f.err
	}

	if _, ok := f.paths[path]; !ok {
		f.paths[path] = description
	}

	return nil
}

type fakeRefresher struct {
	user    *session.User
	touched int
}

func (f *fakeRefresher) Touch(http.ResponseWriter, *http.Request) *session.User {
	f.touched++

	return f.user
}

func newTestGate(bl *fakeBlocklist, rf *fakeRefresher, failMode config.GateFailMode) *Gate {
	return &Gate{blocklist: bl, sessions: rf, failMode: failMode}
}

// serve runs the gate on a request from the given remote address and reports
// whether the inner handler was reached.
func serve(t *testing.T, g *Gate, method, target, remoteAddr string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = remoteAddr
	req = req.WithContext(request_context.WithRequestContext(req.Context(), req))

	rr := httptest.NewRecorder()
	forwarded := false

	g.Evaluate(rr, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		forwarded = true
	}))

	return rr, forwarded
}

func setupI18n(t *testing.T) {
	t.Helper()
	require.NoError(t, i18n.Setup())
}

func TestEvaluateBlockedIP(t *testing.T) {
	setupI18n(t)

	bl := newFakeBlocklist()
	bl.ips["1.2.3.4"] = "curl/8"

	rr, forwarded := serve(t, newTestGate(bl, &fakeRefresher{}, config.FailClosed), "GET", "/es", "1.2.3.4:5000")

	assert.False(t, forwarded)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "request blocked")
}

func TestEvaluateSuspiciousPath(t *testing.T) {
	setupI18n(t)

	bl := newFakeBlocklist()
	g := newTestGate(bl, &fakeRefresher{}, config.FailClosed)

	rr, forwarded := serve(t, g, "GET", "/wp-admin/setup.php", "1.2.3.4:5000")

	assert.False(t, forwarded)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// The path and the caller's IP are both persisted.
	assert.Contains(t, bl.paths, "/wp-admin/setup.php")
	assert.Contains(t, bl.ips, "1.2.3.4")

	// A repeat probe yields the same result and the same stored state.
	rr, forwarded = serve(t, g, "GET", "/wp-admin/setup.php", "1.2.3.4:5000")
	assert.False(t, forwarded)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Len(t, bl.paths, 1)

	// A different caller probing a path under the persisted prefix gets
	// blocked too, without creating a second path entry.
	rr, forwarded = serve(t, g, "GET", "/wp-admin/setup.php/extra", "9.9.9.9:1234")
	assert.False(t, forwarded)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, bl.ips, "9.9.9.9")
	assert.Len(t, bl.paths, 1)
}

func TestEvaluateRootRedirect(t *testing.T) {
	setupI18n(t)

	rr, forwarded := serve(t, newTestGate(newFakeBlocklist(), &fakeRefresher{}, config.FailClosed), "GET", "/", "1.2.3.4:5000")

	assert.False(t, forwarded)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/es", rr.Header().Get("Location"))
}

func TestEvaluateLocaleRedirect(t *testing.T) {
	setupI18n(t)

	req := httptest.NewRequest("GET", "/precios", nil)
	req.RemoteAddr = "1.2.3.4:5000"
	req.Header.Set("Accept-Language", "en")
	req = req.WithContext(request_context.WithRequestContext(req.Context(), req))

	rr := httptest.NewRecorder()
	forwarded := false

	newTestGate(newFakeBlocklist(), &fakeRefresher{}, config.FailClosed).
		Evaluate(rr, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			forwarded = true
		}))

	assert.False(t, forwarded)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/en/precios", rr.Header().Get("Location"))
}

func TestEvaluateForwardsLocalizedPath(t *testing.T) {
	setupI18n(t)

	user := &session.User{ID: "user-1"}
	rf := &fakeRefresher{user: user}

	req := httptest.NewRequest("GET", "/es/precios", nil)
	req.RemoteAddr = "1.2.3.4:5000"
	req = req.WithContext(request_context.WithRequestContext(req.Context(), req))

	rr := httptest.NewRecorder()
	forwarded := false

	newTestGate(newFakeBlocklist(), rf, config.FailClosed).
		Evaluate(rr, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			forwarded = true
		}))

	assert.True(t, forwarded)
	assert.Equal(t, 1, rf.touched)
	assert.Equal(t, user, request_context.FromRequest(req).User)
}

func TestEvaluateExcludedPaths(t *testing.T) {
	setupI18n(t)

	bl := newFakeBlocklist()
	bl.ips["1.2.3.4"] = "curl/8"
	rf := &fakeRefresher{user: &session.User{ID: "user-1"}}
	g := newTestGate(bl, rf, config.FailClosed)

	// API paths bypass the blocklist but still get a session.
	req := httptest.NewRequest("GET", "/api/subscription/user", nil)
	req.RemoteAddr = "1.2.3.4:5000"
	req = req.WithContext(request_context.WithRequestContext(req.Context(), req))

	rr := httptest.NewRecorder()
	forwarded := false

	g.Evaluate(rr, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		forwarded = true
	}))

	assert.True(t, forwarded)
	assert.NotNil(t, request_context.FromRequest(req).User)

	// Infrastructure paths bypass everything, including the session.
	_, forwarded = serve(t, g, "GET", "/healthz", "1.2.3.4:5000")
	assert.True(t, forwarded)
	assert.Equal(t, 1, rf.touched)
}

func TestEvaluateFailModes(t *testing.T) {
	setupI18n(t)

	storeErr := errors.New("connection refused")

	t.Run("fail closed", func(t *testing.T) {
		bl := newFakeBlocklist()
		bl.err = storeErr

		rr, forwarded := serve(t, newTestGate(bl, &fakeRefresher{}, config.FailClosed), "GET", "/es", "1.2.3.4:5000")

		assert.False(t, forwarded)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("fail open", func(t *testing.T) {
		bl := newFakeBlocklist()
		bl.err = storeErr

		_, forwarded := serve(t, newTestGate(bl, &fakeRefresher{}, config.FailOpen), "GET", "/es", "1.2.3.4:5000")

		assert.True(t, forwarded)
	})

	t.Run("fail open still localizes", func(t *testing.T) {
		bl := newFakeBlocklist()
		bl.err = storeErr

		rr, forwarded := serve(t, newTestGate(bl, &fakeRefresher{}, config.FailOpen), "GET", "/precios", "1.2.3.4:5000")

		assert.False(t, forwarded)
		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Equal(t, "/es/precios", rr.Header().Get("Location"))
	})

	t.Run("fail open keeps sessions", func(t *testing.T) {
		bl := newFakeBlocklist()
		bl.err = storeErr
		rf := &fakeRefresher{}

		_, forwarded := serve(t, newTestGate(bl, rf, config.FailOpen), "GET", "/es", "1.2.3.4:5000")

		assert.True(t, forwarded)
		assert.Equal(t, 1, rf.touched)
	})
}
