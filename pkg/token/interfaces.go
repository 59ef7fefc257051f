// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"context"
	"time"

	"github.com/canonical/elevation-service/internal/types"
)

type ServiceInterface interface {
	Issue(ctx context.Context, email string, validity time.Duration, issuedBy string) (*IssuedToken, error)
	ValidateForDisplay(ctx context.Context, value string) (*DisplayView, error)
	// Consume burns the token for the given principal. Success means this
	// caller, and no concurrent one, consumed it.
	Consume(ctx context.Context, value, presentedEmail, principalID string) (*types.InvitationToken, error)
	List(ctx context.Context) ([]TokenView, error)
	Delete(ctx context.Context, value string) error
}

// PrincipalProviderInterface resolves caller records for operator checks.
type PrincipalProviderInterface interface {
	GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error)
}

// StorageInterface is the subset of the storage layer the token service
// depends on.
type StorageInterface interface {
	CreateToken(ctx context.Context, email, issuedBy, value string, expiresAt time.Time) (*types.InvitationToken, error)
	GetTokenByValue(ctx context.Context, value string) (*types.InvitationToken, error)
	MarkTokenConsumed(ctx context.Context, value, consumedBy string) (*types.InvitationToken, error)
	ListTokens(ctx context.Context) ([]types.InvitationToken, error)
	DeleteToken(ctx context.Context, value string) error
}
