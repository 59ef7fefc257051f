// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/openfga"
	"github.com/canonical/elevation-service/internal/tracing"
)

var ErrInvalidAuthModel = fmt.Errorf("invalid authorization model schema")

var _ AuthorizerInterface = (*Authorizer)(nil)

type Authorizer struct {
	client AuthzClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) Check(ctx context.Context, user string, relation string, object string, contextualTuples ...openfga.Tuple) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.Check")
	defer span.End()

	return a.client.Check(ctx, user, relation, object, contextualTuples...)
}

func (a *Authorizer) ValidateModel(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ValidateModel")
	defer span.End()

	v0AuthzModel := NewAuthorizationModelProvider("v0")
	model := *v0AuthzModel.GetModel()

	eq, err := a.client.CompareModel(ctx, model)
	if err != nil {
		return err
	}
	if !eq {
		return ErrInvalidAuthModel
	}
	return nil
}

func (a *Authorizer) AssignPlatformAdmin(ctx context.Context, userId string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AssignPlatformAdmin")
	defer span.End()

	return a.client.WriteTuple(ctx, UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM))
}

func (a *Authorizer) RemovePlatformAdmin(ctx context.Context, userId string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RemovePlatformAdmin")
	defer span.End()

	return a.client.DeleteTuple(ctx, UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM))
}

func (a *Authorizer) IsPlatformAdmin(ctx context.Context, userId string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.IsPlatformAdmin")
	defer span.End()

	return a.Check(ctx, UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM))
}

func NewAuthorizer(client AuthzClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.client = client
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
