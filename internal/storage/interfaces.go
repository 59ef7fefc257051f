// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/types"
)

// PrincipalPatch carries the mutable fields of a principal record. Nil
// fields are left untouched by UpdatePrincipal.
type PrincipalPatch struct {
	Name    *string
	IsAdmin *bool
}

type StorageInterface interface {
	CreateToken(ctx context.Context, email, issuedBy, value string, expiresAt time.Time) (*types.InvitationToken, error)
	GetTokenByValue(ctx context.Context, value string) (*types.InvitationToken, error)
	// MarkTokenConsumed performs the single conditional write that burns a
	// token. It succeeds for exactly one caller per token value.
	MarkTokenConsumed(ctx context.Context, value, consumedBy string) (*types.InvitationToken, error)
	ListTokens(ctx context.Context) ([]types.InvitationToken, error)
	DeleteToken(ctx context.Context, value string) error

	CreatePrincipal(ctx context.Context, id, email, name string) (*types.Principal, error)
	GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (*types.Principal, error)
	// UpdatePrincipal applies the patch inside a transaction, running the
	// privilege guard against the pre-mutation row image before writing.
	UpdatePrincipal(ctx context.Context, id string, patch PrincipalPatch, writer *identity.Principal) (*types.Principal, error)
}
