// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

var _ OperatorGateInterface = (*OperatorGate)(nil)

// OperatorGate decides whether a caller may perform operator actions such
// as issuing tokens or granting admin. Trust comes from the authenticated
// principal, never from request headers or payloads.
type OperatorGate struct {
	authz AuthorizerInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewOperatorGate(authz AuthorizerInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *OperatorGate {
	g := new(OperatorGate)

	g.authz = authz
	g.tracer = tracer
	g.logger = logger

	return g
}

// IsOperator accepts trusted service accounts outright. Human callers must
// both carry the admin flag on their stored record and pass the platform
// admin check. The record may be nil when the caller has no stored row.
func (g *OperatorGate) IsOperator(ctx context.Context, caller *identity.Principal, record *types.Principal) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "authorization.OperatorGate.IsOperator")
	defer span.End()

	if caller == nil {
		return false, nil
	}

	if caller.ServiceAccount {
		return true, nil
	}

	if record == nil || !record.IsAdmin {
		return false, nil
	}

	return g.authz.IsPlatformAdmin(ctx, caller.ID)
}
