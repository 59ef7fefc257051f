// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage             StorageInterface
	registrationBaseURL string
	validate            *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	registrationBaseURL string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:             storage,
		registrationBaseURL: strings.TrimRight(registrationBaseURL, "/"),
		validate:            validator.New(),
		tracer:              tracer,
		monitor:             monitor,
		logger:              logger,
	}
}

// Issue creates a single-use invitation bound to the given email. The token
// value is a UUIDv4, 122 bits of entropy.
func (s *Service) Issue(ctx context.Context, email string, validity time.Duration, issuedBy string) (*IssuedToken, error) {
	ctx, span := s.tracer.Start(ctx, "token.Service.Issue")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	if validity <= 0 {
		return nil, ErrInvalidValidity
	}

	value := uuid.New().String()
	expiresAt := time.Now().UTC().Add(validity)

	t, err := s.storage.CreateToken(ctx, email, issuedBy, value, expiresAt)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// A duplicate UUIDv4 should never happen, surface it loudly
			// rather than retrying.
			s.logger.Errorf("token value collision on issue for %s", email)
		}
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &IssuedToken{
		Token:           t.Value,
		Email:           t.Email,
		RegistrationURL: s.registrationURL(t.Value),
		ExpiresAt:       t.ExpiresAt,
	}, nil
}

// ValidateForDisplay never mutates state and never reveals whether an
// unknown value exists.
func (s *Service) ValidateForDisplay(ctx context.Context, value string) (*DisplayView, error) {
	ctx, span := s.tracer.Start(ctx, "token.Service.ValidateForDisplay")
	defer span.End()

	t, err := s.storage.GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &DisplayView{IsValid: false}, nil
		}
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	if t.Status(time.Now().UTC()) != types.TokenStatusActive {
		return &DisplayView{Email: t.Email, IsValid: false}, nil
	}

	return &DisplayView{Email: t.Email, IsValid: true}, nil
}

// Consume runs the ordered validation checks and then the atomic conditional
// write. The early checks only avoid wasting the one-time write; the write's
// own success is the sole authority on whether this caller consumed the
// token.
func (s *Service) Consume(ctx context.Context, value, presentedEmail, principalID string) (*types.InvitationToken, error) {
	ctx, span := s.tracer.Start(ctx, "token.Service.Consume")
	defer span.End()

	t, err := s.storage.GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	switch t.Status(time.Now().UTC()) {
	case types.TokenStatusUsed:
		return nil, ErrTokenAlreadyUsed
	case types.TokenStatusExpired:
		return nil, ErrTokenExpired
	}

	// Mismatch is a validation failure, not a consumption: the token stays
	// active for its rightful recipient.
	if !strings.EqualFold(strings.TrimSpace(presentedEmail), t.Email) {
		return nil, ErrEmailMismatch
	}

	consumed, err := s.storage.MarkTokenConsumed(ctx, value, principalID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyConsumed):
			// Lost the race against a concurrent consumer.
			return nil, ErrTokenAlreadyUsed
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	return consumed, nil
}

func (s *Service) List(ctx context.Context) ([]TokenView, error) {
	ctx, span := s.tracer.Start(ctx, "token.Service.List")
	defer span.End()

	tokens, err := s.storage.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	now := time.Now().UTC()
	views := make([]TokenView, len(tokens))
	for i, t := range tokens {
		views[i] = TokenView{
			ID:         t.ID,
			Value:      t.Value,
			Email:      t.Email,
			IssuedBy:   t.IssuedBy,
			CreatedAt:  t.CreatedAt,
			ExpiresAt:  t.ExpiresAt,
			ConsumedAt: t.ConsumedAt,
			ConsumedBy: t.ConsumedBy,
			Status:     t.Status(now),
		}
	}

	return views, nil
}

// Delete is idempotent, removing an unknown value is not an error.
func (s *Service) Delete(ctx context.Context, value string) error {
	ctx, span := s.tracer.Start(ctx, "token.Service.Delete")
	defer span.End()

	return s.storage.DeleteToken(ctx, value)
}

func (s *Service) registrationURL(value string) string {
	return fmt.Sprintf("%s/register?token=%s", s.registrationBaseURL, url.QueryEscape(value))
}
