// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package billing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestObserveEmitsSpan(t *testing.T) {
	var buf bytes.Buffer

	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	done := observe(context.Background(), http.MethodPost, "/v1/customers")
	done(errors.New("card declined"))

	out := buf.String()
	assert.Contains(t, out, `"destination":"stripe"`)
	assert.Contains(t, out, `"url":"/v1/customers"`)
	assert.Contains(t, out, "card declined")
}
