// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import (
	"context"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
)

type ServiceInterface interface {
	// ElevateViaToken consumes the token and then grants admin to the
	// principal through the trusted write path. Consumption and grant are
	// separate units of work, see ErrGrantAfterConsumeFailed.
	ElevateViaToken(ctx context.Context, tokenValue, principalID, principalEmail string) error
	// Grant sets is_admin directly for the principal behind the given
	// email. Operator remediation path.
	Grant(ctx context.Context, email, actor string) (*types.Principal, error)
}

// TokenManagerInterface is the consuming slice of the token lifecycle
// service.
type TokenManagerInterface interface {
	Consume(ctx context.Context, value, presentedEmail, principalID string) (*types.InvitationToken, error)
}

type StorageInterface interface {
	GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (*types.Principal, error)
	CreatePrincipal(ctx context.Context, id, email, name string) (*types.Principal, error)
	UpdatePrincipal(ctx context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error)
}

// PrincipalProviderInterface resolves the caller's own record for the
// operator gate.
type PrincipalProviderInterface interface {
	GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error)
}

type AuthorizerInterface interface {
	AssignPlatformAdmin(ctx context.Context, userID string) error
}

type KratosClientInterface interface {
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
}
