// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package principal

import (
	"context"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
)

type ServiceInterface interface {
	GetPrincipal(ctx context.Context, id string) (*types.Principal, error)
	// UpdatePrincipal applies the patch under the privilege guard. The
	// writer decides which guard path applies, see internal/guard.
	UpdatePrincipal(ctx context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error)
}

type StorageInterface interface {
	GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error)
	UpdatePrincipal(ctx context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error)
}

// AuthorizerInterface mirrors the admin flag into the platform-admin
// relation.
type AuthorizerInterface interface {
	AssignPlatformAdmin(ctx context.Context, userID string) error
	RemovePlatformAdmin(ctx context.Context, userID string) error
}
