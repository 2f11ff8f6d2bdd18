// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package session validates and refreshes user sessions issued by the external
auth backend.

The backend owns accounts, passwords and OAuth flows; this package only
verifies the access tokens it mints (HS256, shared secret) and exchanges
refresh tokens over its public token endpoint.
*/
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/audit"
	"github.com/nivelo/nivelo/server/utils"
)

const tokenLeeway = 30 * time.Second

var (
	errInvalidAccessToken      = errors.New("invalid access token")
	errMissingSubject          = errors.New("access token has no subject")
	errRefreshRequestFailed    = errors.New("failed to send refresh request")
	errRefreshRejected         = errors.New("auth backend rejected the refresh token")
	errRefreshResponseInvalid  = errors.New("failed to parse refresh response")
	errRefreshRequestBuild     = errors.New("failed to build refresh request")
	errRefreshPayloadMarshal   = errors.New("failed to marshal refresh payload")
	errRefreshTokensIncomplete = errors.New("refresh response is missing tokens")
)

// User is the identity carried by a verified access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user carries the admin role claim.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// TokenPair is the result of a successful refresh exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// accessClaims mirrors the subset of the backend's JWT payload we consume.
type accessClaims struct {
	jwt.RegisteredClaims

	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// Client talks to the auth backend and verifies its tokens.
type Client struct {
	backendURL string
	anonKey    string
	secret     []byte
	timeout    time.Duration
	parser     *jwt.Parser
	httpClient *http.Client
}

// NewClient builds a Client from the global configuration.
func NewClient() *Client {
	cfg := config.Global.Auth

	return NewClientWith(cfg.BackendURL, cfg.AnonKey, cfg.JWTSecret, cfg.RefreshTimeout)
}

// NewClientWith builds a Client with explicit settings. Mostly for tests.
func NewClientWith(backendURL, anonKey, jwtSecret string, timeout time.Duration) *Client {
	return &Client{
		backendURL: backendURL,
		anonKey:    anonKey,
		secret:     []byte(jwtSecret),
		timeout:    timeout,
		parser: jwt.NewParser(
			jwt.WithLeeway(tokenLeeway),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
		),
		httpClient: utils.HTTPClient,
	}
}

// VerifyAccessToken parses and validates an access token, returning the user
// identity it carries.
func (c *Client) VerifyAccessToken(tokenString string) (*User, error) {
	var claims accessClaims

	token, err := c.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidAccessToken, err)
	}

	if !token.Valid {
		return nil, errInvalidAccessToken
	}

	if claims.Subject == "" {
		return nil, errMissingSubject
	}

	return &User{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.AppMetadata.Role,
	}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Refresh exchanges a refresh token for a fresh token pair at the backend's
// token endpoint.
func (c *Client) Refresh(r *http.Request, refreshToken string) (_ *TokenPair, err error) {
	jsonData, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRefreshPayloadMarshal, err)
	}

	endpoint := c.backendURL + "/token?grant_type=refresh_token"

	ctx, cancel := contextWithTimeout(r, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRefreshRequestBuild, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	span := audit.Span{
		Destination: audit.ToAuth,
		RequestID:   audit.RequestIDFrom(r.Context()),
		Method:      req.Method,
		URL:         endpoint,
	}

	_ = span.Begin(r.Context())

	defer func() {
		span.Error = err
		span.End()
		span.Log()
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRefreshRequestFailed, err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRefreshResponseInvalid, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errRefreshRejected, resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", errRefreshResponseInvalid, err)
	}

	if parsed.AccessToken == "" || parsed.RefreshToken == "" {
		return nil, errRefreshTokensIncomplete
	}

	return &TokenPair{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    parsed.ExpiresIn,
	}, nil
}

func contextWithTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}

	return context.WithTimeout(r.Context(), timeout)
}
