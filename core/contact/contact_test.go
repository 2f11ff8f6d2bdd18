// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	valid := Message{
		Name:    "Ana García",
		Email:   "ana@example.com",
		Message: "Hola, tengo una pregunta sobre la suscripción.",
	}

	tests := []struct {
		name    string
		mutate  func(*Message)
		wantErr error
	}{
		{"valid message", func(*Message) {}, nil},
		{"trims whitespace", func(m *Message) { m.Name = "  Ana  " }, nil},
		{"empty name", func(m *Message) { m.Name = "   " }, ErrNameRequired},
		{"name too long", func(m *Message) { m.Name = strings.Repeat("a", maxNameLength+1) }, ErrNameRequired},
		{"empty email", func(m *Message) { m.Email = "" }, ErrEmailInvalid},
		{"malformed email", func(m *Message) { m.Email = "not-an-email" }, ErrEmailInvalid},
		{"empty message", func(m *Message) { m.Message = "" }, ErrMessageRequired},
		{"message too long", func(m *Message) { m.Message = strings.Repeat("x", maxMessageLength+1) }, ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := valid
			tt.mutate(&msg)

			err := msg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	// 60/min with burst 2: two immediate submissions pass, the third is
	// throttled (token refill is too slow to matter inside a test run).
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// Separate IPs get separate buckets.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestRateLimiterKeepsFreshEntries(t *testing.T) {
	t.Parallel()

	// A brand-new entry must not be swept by stale eviction during its own
	// insertion; consecutive calls have to hit the same bucket.
	rl := NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	if _, ok := rl.entries["1.2.3.4"]; !ok {
		t.Fatal("entry evicted immediately after insertion")
	}
}
