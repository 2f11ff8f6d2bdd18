// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import "context"

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// WithRequestID attaches a request identifier to the context so that spans
// created further down the call chain can correlate with the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request identifier attached to the context,
// or an empty string if none was set.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}

	return ""
}
