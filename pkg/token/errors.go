// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import "errors"

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidValidity  = errors.New("validity must be a positive duration")
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")
	// ErrEmailMismatch means the presented email does not match the email the
	// token was issued for. The token stays active.
	ErrEmailMismatch = errors.New("email does not match invitation")
)
