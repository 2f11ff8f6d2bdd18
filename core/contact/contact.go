// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package contact persists contact-form submissions.
package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxNameLength    = 200
	maxEmailLength   = 320
	maxMessageLength = 5000
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrEmailInvalid    = errors.New("a valid email address is required")
	ErrMessageRequired = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message is too long")
)

// Message is a single contact-form submission.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate normalizes and checks the submission fields in place.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)

	if m.Name == "" || len(m.Name) > maxNameLength {
		return ErrNameRequired
	}

	if m.Email == "" || len(m.Email) > maxEmailLength {
		return ErrEmailInvalid
	}

	if _, err := mail.ParseAddress(m.Email); err != nil {
		return ErrEmailInvalid
	}

	if m.Message == "" {
		return ErrMessageRequired
	}

	if len(m.Message) > maxMessageLength {
		return ErrMessageTooLong
	}

	return nil
}

// Store persists contact messages.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save validates and inserts the message, assigning its ID and timestamp.
func (s *Store) Save(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		`
			INSERT INTO contact_messages (id, name, email, message, created_at)
			VALUES ($1, $2, $3, $4, $5);
		`,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Message,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}

	return nil
}
