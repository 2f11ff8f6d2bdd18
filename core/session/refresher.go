// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package session

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/core/cookie"
	"github.com/nivelo/nivelo/server/utils"
)

// fallbackCookieAge is used when the backend omits expires_in.
const fallbackCookieAge = time.Hour

// Refresher keeps browser sessions alive as requests pass through.
type Refresher struct {
	client *Client
}

func NewRefresher(client *Client) *Refresher {
	return &Refresher{client: client}
}

// Touch validates the session carried by the request's cookies, exchanging
// the refresh token for a new pair when the access token is missing or
// expired.
//
// Touch never fails the request: on any error the session is treated as
// anonymous and nil is returned.
func (rf *Refresher) Touch(w http.ResponseWriter, r *http.Request) *User {
	accessToken := GetCookie(r, cookie.AccessTokenCookie)

	if accessToken != "" {
		user, err := rf.client.VerifyAccessToken(accessToken)
		if err == nil {
			return user
		}

		log.Debug().
			Err(err).
			Msg("Access token rejected, attempting refresh")
	}

	refreshToken := GetCookie(r, cookie.RefreshTokenCookie)
	if refreshToken == "" {
		return nil
	}

	pair, err := rf.client.Refresh(r, refreshToken)
	if err != nil {
		log.Debug().
			Err(err).
			Msg("Session refresh failed")

		// The pair is dead; drop the cookies so the client stops
		// presenting them on every request.
		ClearTokenCookies(w, r)

		return nil
	}

	user, err := rf.client.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Auth backend returned an unverifiable access token")

		return nil
	}

	SetTokenCookies(w, r, pair)

	return user
}

// GetCookie reads a cookie value, returning an empty string when absent.
func GetCookie(r *http.Request, name cookie.CookieName) string {
	c, err := r.Cookie(string(name))
	if err != nil {
		return ""
	}

	return c.Value
}

// SetTokenCookies writes the session token pair as HTTP-only cookies.
func SetTokenCookies(w http.ResponseWriter, r *http.Request, pair *TokenPair) {
	maxAge := int(fallbackCookieAge.Seconds())
	if pair.ExpiresIn > 0 {
		maxAge = int(pair.ExpiresIn)
	}

	setCookie(w, r, cookie.AccessTokenCookie, pair.AccessToken, maxAge)

	// Refresh tokens outlive access tokens; give the cookie a month.
	setCookie(w, r, cookie.RefreshTokenCookie, pair.RefreshToken, 30*24*60*60)
}

// ClearTokenCookies removes the session cookies.
func ClearTokenCookies(w http.ResponseWriter, r *http.Request) {
	setCookie(w, r, cookie.AccessTokenCookie, "", -1)
	setCookie(w, r, cookie.RefreshTokenCookie, "", -1)
}

func setCookie(w http.ResponseWriter, r *http.Request, name cookie.CookieName, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     string(name),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}
