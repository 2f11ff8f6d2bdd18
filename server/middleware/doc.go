// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides HTTP request handling functionality for Nivelo.

Middleware registration order is centralized in server/router; the request
gate lives in the gate subpackage.
*/
package middleware
