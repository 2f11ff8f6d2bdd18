// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"encoding/base64"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

// Span represents an HTTP request in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Destination TrafficDestination
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Error       error
}

// TrafficDestination describes the logical destination of an HTTP request.
type TrafficDestination string

// Constants for traffic destinations.
const (
	ToUser   TrafficDestination = "user"
	ToAuth   TrafficDestination = "auth"
	ToStripe TrafficDestination = "stripe"
)

func (span Span) ServerTimingName() string {
	// base64 without trailing '=' to match the metric name syntax
	return string(span.Destination) + "$" + span.Method + "$" + base64.RawURLEncoding.EncodeToString([]byte(span.URL))
}

func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "http."+string(span.Destination))
	if servertimingContext := servertiming.FromContext(ctx); servertimingContext != nil {
		span.metric = servertimingContext.NewMetric(span.ServerTimingName())
		span.metric.Extra = make(map[string]string)
		span.metric.Extra["start"] = strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64)
	}

	return ctx
}

// End finalizes the span's timing information.
func (span *Span) End() {
	// only log once
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()

		if span.metric != nil {
			span.metric.Duration = span.duration
		}

		span.task = nil
	}
}

// Log emits the completed span through the global logger.
func (span Span) Log() {
	event := log.Debug()

	event.Str("sys", "http")
	event.Str("method", span.Method)
	event.Str("url", span.URL)
	event.Int("status_code", span.StatusCode)
	event.Dur("dur", span.duration)
	event.Str("destination", string(span.Destination))
	event.Str("request_id", span.RequestID)

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}
