// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivelo/nivelo/core/cookie"
)

const testSecret = "unit-test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-123",
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"app_metadata": map[string]any{
			"role": "admin",
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	t.Parallel()

	client := NewClientWith("http://auth.local", "anon", testSecret, time.Second)

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		user, err := client.VerifyAccessToken(mintToken(t, testSecret, validClaims()))
		require.NoError(t, err)

		assert.Equal(t, "user-123", user.ID)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.True(t, user.IsAdmin())
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		_, err := client.VerifyAccessToken(mintToken(t, "another-secret", validClaims()))
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()

		_, err := client.VerifyAccessToken(mintToken(t, testSecret, claims))
		assert.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		t.Parallel()

		claims := validClaims()
		delete(claims, "exp")

		_, err := client.VerifyAccessToken(mintToken(t, testSecret, claims))
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()

		claims := validClaims()
		delete(claims, "sub")

		_, err := client.VerifyAccessToken(mintToken(t, testSecret, claims))
		assert.ErrorIs(t, err, errMissingSubject)
	})

	t.Run("no admin role", func(t *testing.T) {
		t.Parallel()

		claims := validClaims()
		claims["app_metadata"] = map[string]any{"role": "user"}

		user, err := client.VerifyAccessToken(mintToken(t, testSecret, claims))
		require.NoError(t, err)
		assert.False(t, user.IsAdmin())
	})

	t.Run("garbage input", func(t *testing.T) {
		t.Parallel()

		_, err := client.VerifyAccessToken("not-a-jwt")
		assert.Error(t, err)
	})
}

// fakeBackend spins up a token endpoint that accepts a single refresh token.
func fakeBackend(t *testing.T, acceptToken string, pair TokenPair) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "refresh_token" {
			http.Error(w, "unsupported grant type", http.StatusBadRequest)

			return
		}

		if r.Header.Get("apikey") == "" {
			http.Error(w, "missing apikey", http.StatusUnauthorized)

			return
		}

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken != acceptToken {
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	wantPair := TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    3600,
	}
	backend := fakeBackend(t, "good-refresh", wantPair)

	client := NewClientWith(backend.URL, "anon", testSecret, time.Second)
	req := httptest.NewRequest("GET", "/es", nil)

	pair, err := client.Refresh(req, "good-refresh")
	require.NoError(t, err)
	assert.Equal(t, wantPair, *pair)

	_, err = client.Refresh(req, "bad-refresh")
	assert.ErrorIs(t, err, errRefreshRejected)
}

func TestRefresherTouch(t *testing.T) {
	t.Parallel()

	freshAccess := mintToken(t, testSecret, validClaims())
	backend := fakeBackend(t, "good-refresh", TokenPair{
		AccessToken:  freshAccess,
		RefreshToken: "rotated-refresh",
		ExpiresIn:    3600,
	})

	newRefresher := func() *Refresher {
		return NewRefresher(NewClientWith(backend.URL, "anon", testSecret, time.Second))
	}

	t.Run("valid access token passes through", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/es", nil)
		req.AddCookie(&http.Cookie{Name: string(cookie.AccessTokenCookie), Value: freshAccess})

		rr := httptest.NewRecorder()

		user := newRefresher().Touch(rr, req)
		require.NotNil(t, user)
		assert.Equal(t, "user-123", user.ID)

		// No refresh happened, so no new cookies.
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("expired access token triggers refresh", func(t *testing.T) {
		t.Parallel()

		expired := validClaims()
		expired["exp"] = time.Now().Add(-time.Hour).Unix()

		req := httptest.NewRequest("GET", "/es", nil)
		req.AddCookie(&http.Cookie{Name: string(cookie.AccessTokenCookie), Value: mintToken(t, testSecret, expired)})
		req.AddCookie(&http.Cookie{Name: string(cookie.RefreshTokenCookie), Value: "good-refresh"})

		rr := httptest.NewRecorder()

		user := newRefresher().Touch(rr, req)
		require.NotNil(t, user)

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 2)

		byName := make(map[string]*http.Cookie, len(cookies))
		for _, c := range cookies {
			byName[c.Name] = c
		}

		access := byName[string(cookie.AccessTokenCookie)]
		require.NotNil(t, access)
		assert.Equal(t, freshAccess, access.Value)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, 3600, access.MaxAge)

		refresh := byName[string(cookie.RefreshTokenCookie)]
		require.NotNil(t, refresh)
		assert.Equal(t, "rotated-refresh", refresh.Value)
	})

	t.Run("rejected refresh token yields anonymous and clears cookies", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/es", nil)
		req.AddCookie(&http.Cookie{Name: string(cookie.RefreshTokenCookie), Value: "stolen-refresh"})

		rr := httptest.NewRecorder()

		assert.Nil(t, newRefresher().Touch(rr, req))

		// A dead token pair must not be presented again; both session
		// cookies come back expired.
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 2)

		for _, c := range cookies {
			assert.Empty(t, c.Value, c.Name)
			assert.Negative(t, c.MaxAge, c.Name)
		}
	})

	t.Run("no cookies yields anonymous", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/es", nil)
		rr := httptest.NewRecorder()

		assert.Nil(t, newRefresher().Touch(rr, req))
	})
}
