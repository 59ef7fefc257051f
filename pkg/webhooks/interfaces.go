// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/canonical/elevation-service/internal/types"
)

// StorageInterface is the subset of the principal store the webhook
// needs.
type StorageInterface interface {
	CreatePrincipal(ctx context.Context, id, email, name string) (*types.Principal, error)
}

// ElevatorInterface redeems an invitation token that accompanied a
// registration.
type ElevatorInterface interface {
	ElevateViaToken(ctx context.Context, tokenValue, principalID, principalEmail string) error
}

type ServiceInterface interface {
	HandleRegistration(ctx context.Context, event *RegistrationEvent) error
}
