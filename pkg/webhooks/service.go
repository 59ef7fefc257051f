// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	elevator ElevatorInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	elevator ElevatorInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		elevator: elevator,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// HandleRegistration provisions the principal row for a fresh Kratos
// identity and, when the signup carried an invitation token, redeems it.
// A failed elevation does not fail the registration, the account exists
// either way and an operator can remediate with a direct grant.
func (s *Service) HandleRegistration(ctx context.Context, event *RegistrationEvent) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	identityID := event.Identity.ID
	email := strings.ToLower(strings.TrimSpace(event.Identity.Traits.Email))

	s.logger.Debugf("handling registration for identity %s with email %s", identityID, email)

	if identityID == "" || email == "" {
		return fmt.Errorf("identity ID or email is empty")
	}

	// Replayed webhook deliveries land on the same row.
	if _, err := s.storage.CreatePrincipal(ctx, identityID, email, event.Identity.Traits.Name); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	if event.InvitationToken == "" {
		return nil
	}

	if err := s.elevator.ElevateViaToken(ctx, event.InvitationToken, identityID, email); err != nil {
		s.logger.Errorf("elevation during registration failed for principal %s: %v", identityID, err)
		return nil
	}

	s.logger.Infof("elevated principal %s during registration", identityID)
	return nil
}
