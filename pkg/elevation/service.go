// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

// ServiceWriterID identifies the orchestrator's own trusted write context.
// It is the one path the privilege guard exempts.
const ServiceWriterID = "system:elevation-service"

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	tokens  TokenManagerInterface
	storage StorageInterface
	authz   AuthorizerInterface
	kratos  KratosClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	tokens TokenManagerInterface,
	storage StorageInterface,
	authz AuthorizerInterface,
	kratos KratosClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		tokens:  tokens,
		storage: storage,
		authz:   authz,
		kratos:  kratos,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) serviceWriter() *identity.Principal {
	return &identity.Principal{ID: ServiceWriterID, ServiceAccount: true}
}

// ElevateViaToken runs consume then grant as two units of work. Token
// failures propagate before any mutation of the principal. A grant failure
// after a successful consume is surfaced as ErrGrantAfterConsumeFailed and
// never retried here, the token is already burned.
func (s *Service) ElevateViaToken(ctx context.Context, tokenValue, principalID, principalEmail string) error {
	ctx, span := s.tracer.Start(ctx, "elevation.Service.ElevateViaToken")
	defer span.End()

	if _, err := s.tokens.Consume(ctx, tokenValue, principalEmail, principalID); err != nil {
		return err
	}

	if err := s.grant(ctx, principalID, strings.ToLower(principalEmail)); err != nil {
		s.logger.Errorf("grant failed after consuming token for principal %s: %v", principalID, err)
		s.logger.Security().GrantFailure(principalID, tokenValue)
		return fmt.Errorf("%w: %v", ErrGrantAfterConsumeFailed, err)
	}

	s.logger.Security().AdminGranted(ServiceWriterID, principalID)
	return nil
}

// Grant is the operator remediation path: resolve the principal by email
// and set the admin flag directly under the trusted context.
func (s *Service) Grant(ctx context.Context, email, actor string) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "elevation.Service.Grant")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))

	p, err := s.storage.GetPrincipalByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up principal: %w", err)
		}

		// No local record yet: the identity may exist upstream in Kratos.
		identityID, kerr := s.kratos.GetIdentityIDByEmail(ctx, email)
		if kerr != nil {
			return nil, fmt.Errorf("failed to resolve identity: %w", kerr)
		}
		if identityID == "" {
			return nil, ErrPrincipalNotFound
		}

		p, err = s.storage.CreatePrincipal(ctx, identityID, email, "")
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("failed to create principal: %w", err)
		}
		if p == nil {
			if p, err = s.storage.GetPrincipalByID(ctx, identityID); err != nil {
				return nil, fmt.Errorf("failed to load principal: %w", err)
			}
		}
	}

	if err := s.grant(ctx, p.ID, email); err != nil {
		return nil, err
	}

	updated, err := s.storage.GetPrincipalByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	s.logger.Security().AdminGranted(actor, p.ID)
	return updated, nil
}

// grant flips is_admin through the guard's exempted write path and mirrors
// the platform-admin tuple.
func (s *Service) grant(ctx context.Context, principalID, email string) error {
	isAdmin := true
	patch := storage.PrincipalPatch{IsAdmin: &isAdmin}

	_, err := s.storage.UpdatePrincipal(ctx, principalID, patch, s.serviceWriter())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Registration webhook may not have landed yet, create the row
			// and write again.
			if _, cerr := s.storage.CreatePrincipal(ctx, principalID, email, ""); cerr != nil && !errors.Is(cerr, storage.ErrDuplicateKey) {
				return fmt.Errorf("failed to create principal: %w", cerr)
			}
			if _, err = s.storage.UpdatePrincipal(ctx, principalID, patch, s.serviceWriter()); err != nil {
				return fmt.Errorf("failed to set admin flag: %w", err)
			}
		} else {
			return fmt.Errorf("failed to set admin flag: %w", err)
		}
	}

	if err := s.authz.AssignPlatformAdmin(ctx, principalID); err != nil {
		return fmt.Errorf("failed to mirror platform admin tuple: %w", err)
	}

	return nil
}
