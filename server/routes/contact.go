// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"github.com/nivelo/nivelo/core/contact"
	"github.com/nivelo/nivelo/server/utils"
)

type contactResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ContactSubmit accepts a contact-form submission. Public, rate limited per
// client IP.
func ContactSubmit(w http.ResponseWriter, r *http.Request) error {
	if !deps.ContactLimiter.Allow(utils.ClientIP(r)) {
		return TooManyRequests()
	}

	var msg contact.Message
	if err := DecodeJSON(r, &msg); err != nil {
		return err
	}

	if err := deps.Contacts.Save(r.Context(), &msg); err != nil {
		if isValidationError(err) {
			return BadRequest(err.Error())
		}

		return err
	}

	WriteJSON(w, http.StatusCreated, contactResponse{Success: true, ID: msg.ID.String()})

	return nil
}

func isValidationError(err error) bool {
	return errors.Is(err, contact.ErrNameRequired) ||
		errors.Is(err, contact.ErrEmailInvalid) ||
		errors.Is(err, contact.ErrMessageRequired) ||
		errors.Is(err, contact.ErrMessageTooLong)
}
