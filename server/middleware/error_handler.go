// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"github.com/nivelo/nivelo/config"
	"github.com/nivelo/nivelo/core/audit"
	"github.com/nivelo/nivelo/server/request_context"
	"github.com/nivelo/nivelo/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized
// error handling, response buffering, and request logging.
//
// It operates as follows:
//  1. It times the request for logging purposes.
//  2. It wraps the execution of the given handler, which has the signature
//     `func(w http.ResponseWriter, r *http.Request) error`. The handler's
//     output is buffered using an httptest.ResponseRecorder.
//  3. Any error returned by the handler is stored in the request context.
//
// After the handler runs, it decides on the final response:
//   - If the handler returns a routes.StatusError, the buffered response is
//     discarded and the JSON error envelope is written with that status.
//   - If the handler returns any other error without writing an HTTP error
//     status code (i.e., status < 400), it's treated as an unhandled internal
//     error: the buffered response is discarded and a generic 500 envelope is
//     written.
//   - In all other cases the buffered response is written to the client.
//
// Finally, it logs the completed request details (status, duration, error)
// via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToUser,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		_ = span.Begin(r.Context())
		defer span.End()

		recorder := httptest.NewRecorder()

		// Execute the handler, capturing its output and any returned error.
		err := handler(recorder, r)

		ctx.RequestError = err

		var statusErr *routes.StatusError

		switch {
		case errors.As(err, &statusErr):
			// A handled failure mode; discard any partial output and write
			// the envelope with the error's status.
			ctx.StatusCode = statusErr.Code

			routes.ErrorResponse(w, r)

		case err != nil && recorder.Code < http.StatusBadRequest:
			// An unhandled error. Discard the recorder's contents and write
			// the generic envelope.
			ctx.StatusCode = http.StatusInternalServerError

			routes.ErrorResponse(w, r)

		default:
			// This is a successful response or a handled error. We trust the recorder's output.
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code // Ensure ctx.StatusCode reflects the actual code for logging.
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		// Log the application response if not excluded.
		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}
