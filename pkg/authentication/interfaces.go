// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/canonical/elevation-service/internal/identity"
)

type ProviderInterface interface {
	// Verifier returns the token verifier associated with the specified OIDC issuer
	Verifier(*oidc.Config) *oidc.IDTokenVerifier
}

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw JWT string and maps its claims onto a
	// principal. Service account status is derived from the subject
	// allow-list or the operator scope, never from request data.
	VerifyToken(ctx context.Context, rawToken string) (*identity.Principal, error)
}
