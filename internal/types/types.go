// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Principal is the local projection of an identity-provider identity.
// ID is assigned by the identity provider at registration time and is
// immutable. IsAdmin is mutable only through the privilege guard's
// trusted write path.
type Principal struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	IsAdmin   bool      `db:"is_admin"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusUsed    TokenStatus = "used"
	TokenStatusExpired TokenStatus = "expired"
)

// InvitationToken is a single-use, time-limited, email-bound bearer
// credential. Value doubles as lookup key and secret.
type InvitationToken struct {
	ID         string     `db:"id"`
	Value      string     `db:"value"`
	Email      string     `db:"email"`
	IssuedBy   string     `db:"issued_by"`
	CreatedAt  time.Time  `db:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	ConsumedBy *string    `db:"consumed_by"`
}

// Status derives the lifecycle state at the given instant. It is never
// stored; a consumed token stays used regardless of expiry.
func (t *InvitationToken) Status(now time.Time) TokenStatus {
	if t.ConsumedAt != nil {
		return TokenStatusUsed
	}
	if now.After(t.ExpiresAt) {
		return TokenStatusExpired
	}
	return TokenStatusActive
}
