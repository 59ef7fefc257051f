// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"time"

	"github.com/canonical/elevation-service/internal/types"
)

// IssuedToken is returned on issuance, carrying the one-time value and the
// registration link built from it.
type IssuedToken struct {
	Token           string    `json:"token"`
	Email           string    `json:"email"`
	RegistrationURL string    `json:"registration_url"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// DisplayView is the public, read-only projection shown before a recipient
// commits to registering. Unknown values yield IsValid=false, never an
// error.
type DisplayView struct {
	Email   string `json:"email"`
	IsValid bool   `json:"is_valid"`
}

// TokenView annotates a stored token with its derived status.
type TokenView struct {
	ID         string            `json:"id"`
	Value      string            `json:"value"`
	Email      string            `json:"email"`
	IssuedBy   string            `json:"issued_by"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
	ConsumedAt *time.Time        `json:"consumed_at,omitempty"`
	ConsumedBy *string           `json:"consumed_by,omitempty"`
	Status     types.TokenStatus `json:"status"`
}
