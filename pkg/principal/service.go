// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package principal

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/elevation-service/internal/guard"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	authz   AuthorizerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	authz AuthorizerInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) GetPrincipal(ctx context.Context, id string) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "principal.Service.GetPrincipal")
	defer span.End()

	return s.storage.GetPrincipalByID(ctx, id)
}

// UpdatePrincipal applies the patch through the guarded storage path and
// keeps the platform-admin relation in sync with the is_admin column.
func (s *Service) UpdatePrincipal(ctx context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "principal.Service.UpdatePrincipal")
	defer span.End()

	old, err := s.storage.GetPrincipalByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.storage.UpdatePrincipal(ctx, id, patch, writer)
	if err != nil {
		if errors.Is(err, guard.ErrSelfElevationForbidden) {
			s.logger.Security().SelfElevationBlocked(id)
		}
		return nil, err
	}

	if patch.IsAdmin == nil || *patch.IsAdmin == old.IsAdmin {
		return updated, nil
	}

	actor := ""
	if writer != nil {
		actor = writer.ID
	}

	if updated.IsAdmin {
		if err := s.authz.AssignPlatformAdmin(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to mirror platform admin tuple: %w", err)
		}
		s.logger.Security().AdminGranted(actor, id)
	} else {
		if err := s.authz.RemovePlatformAdmin(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to remove platform admin tuple: %w", err)
		}
		s.logger.Security().AdminRevoked(actor, id)
	}

	return updated, nil
}
