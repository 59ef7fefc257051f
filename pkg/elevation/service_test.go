// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
	"github.com/canonical/elevation-service/pkg/token"
)

//go:generate mockgen -build_flags=--mod=mod -package elevation -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package elevation -destination ./mock_authorization.go -source=../../internal/authorization/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package elevation -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package elevation -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package elevation -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

type serviceMocks struct {
	tokens   *MockTokenManagerInterface
	storage  *MockStorageInterface
	authz    *MockAuthorizerInterface
	kratos   *MockKratosClientInterface
	logger   *MockLoggerInterface
	security *MockSecurityLoggerInterface
}

func setupService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &serviceMocks{
		tokens:   NewMockTokenManagerInterface(ctrl),
		storage:  NewMockStorageInterface(ctrl),
		authz:    NewMockAuthorizerInterface(ctrl),
		kratos:   NewMockKratosClientInterface(ctrl),
		logger:   NewMockLoggerInterface(ctrl),
		security: NewMockSecurityLoggerInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()
	mockMonitor := NewMockMonitorInterface(ctrl)

	s := NewService(m.tokens, m.storage, m.authz, m.kratos, mockTracer, mockMonitor, m.logger)

	return s, m
}

func isServiceWriter(writer *identity.Principal) bool {
	return writer != nil && writer.ID == ServiceWriterID && writer.ServiceAccount
}

func isAdminPatch(patch storage.PrincipalPatch) bool {
	return patch.IsAdmin != nil && *patch.IsAdmin && patch.Name == nil
}

func TestService_ElevateViaToken(t *testing.T) {
	s, m := setupService(t)

	m.tokens.EXPECT().Consume(gomock.Any(), "value", "invited@example.com", "principal-1").
		Return(&types.InvitationToken{Value: "value"}, nil)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error) {
			if !isAdminPatch(patch) {
				t.Errorf("expected admin-only patch, got %+v", patch)
			}
			if !isServiceWriter(writer) {
				t.Errorf("expected trusted service writer, got %+v", writer)
			}
			return &types.Principal{ID: id, IsAdmin: true}, nil
		})
	m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").Return(nil)
	m.logger.EXPECT().Security().Return(m.security)
	m.security.EXPECT().AdminGranted(ServiceWriterID, "principal-1")

	err := s.ElevateViaToken(context.Background(), "value", "principal-1", "invited@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_ElevateViaTokenConsumeFailuresPropagate(t *testing.T) {
	testCases := []struct {
		name        string
		consumeErr  error
		expectedErr error
	}{
		{"not found", token.ErrTokenNotFound, token.ErrTokenNotFound},
		{"expired", token.ErrTokenExpired, token.ErrTokenExpired},
		{"already used", token.ErrTokenAlreadyUsed, token.ErrTokenAlreadyUsed},
		{"email mismatch", token.ErrEmailMismatch, token.ErrEmailMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, m := setupService(t)

			// No principal mutation may happen when consumption fails.
			m.tokens.EXPECT().Consume(gomock.Any(), "value", "invited@example.com", "principal-1").
				Return(nil, tc.consumeErr)

			err := s.ElevateViaToken(context.Background(), "value", "principal-1", "invited@example.com")
			if !errors.Is(err, tc.expectedErr) {
				t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestService_ElevateViaTokenGrantFailureIsLoud(t *testing.T) {
	s, m := setupService(t)

	m.tokens.EXPECT().Consume(gomock.Any(), "value", "invited@example.com", "principal-1").
		Return(&types.InvitationToken{Value: "value"}, nil)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))
	m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any(), gomock.Any())
	m.logger.EXPECT().Security().Return(m.security)
	m.security.EXPECT().GrantFailure("principal-1", "value")

	err := s.ElevateViaToken(context.Background(), "value", "principal-1", "invited@example.com")
	if !errors.Is(err, ErrGrantAfterConsumeFailed) {
		t.Fatalf("expected ErrGrantAfterConsumeFailed, got %v", err)
	}
}

func TestService_ElevateViaTokenAuthzMirrorFailureIsLoud(t *testing.T) {
	s, m := setupService(t)

	m.tokens.EXPECT().Consume(gomock.Any(), "value", "invited@example.com", "principal-1").
		Return(&types.InvitationToken{Value: "value"}, nil)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
		Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
	m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").Return(errors.New("openfga unavailable"))
	m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any(), gomock.Any())
	m.logger.EXPECT().Security().Return(m.security)
	m.security.EXPECT().GrantFailure("principal-1", "value")

	err := s.ElevateViaToken(context.Background(), "value", "principal-1", "invited@example.com")
	if !errors.Is(err, ErrGrantAfterConsumeFailed) {
		t.Fatalf("expected ErrGrantAfterConsumeFailed, got %v", err)
	}
}

func TestService_ElevateViaTokenCreatesMissingRecord(t *testing.T) {
	s, m := setupService(t)

	m.tokens.EXPECT().Consume(gomock.Any(), "value", "invited@example.com", "principal-1").
		Return(&types.InvitationToken{Value: "value"}, nil)
	first := m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
		Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().CreatePrincipal(gomock.Any(), "principal-1", "invited@example.com", "").
		Return(&types.Principal{ID: "principal-1"}, nil).After(first)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
		Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
	m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").Return(nil)
	m.logger.EXPECT().Security().Return(m.security)
	m.security.EXPECT().AdminGranted(ServiceWriterID, "principal-1")

	err := s.ElevateViaToken(context.Background(), "value", "principal-1", "invited@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Grant(t *testing.T) {
	t.Run("existing principal", func(t *testing.T) {
		s, m := setupService(t)

		m.storage.EXPECT().GetPrincipalByEmail(gomock.Any(), "invited@example.com").
			Return(&types.Principal{ID: "principal-1", Email: "invited@example.com"}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", gomock.Any(), gomock.Any()).
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").Return(nil)
		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AdminGranted("op-1", "principal-1")

		p, err := s.Grant(context.Background(), "Invited@Example.com", "op-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.IsAdmin {
			t.Error("expected granted principal to be admin")
		}
	})

	t.Run("resolved via kratos", func(t *testing.T) {
		s, m := setupService(t)

		m.storage.EXPECT().GetPrincipalByEmail(gomock.Any(), "invited@example.com").
			Return(nil, storage.ErrNotFound)
		m.kratos.EXPECT().GetIdentityIDByEmail(gomock.Any(), "invited@example.com").
			Return("identity-9", nil)
		m.storage.EXPECT().CreatePrincipal(gomock.Any(), "identity-9", "invited@example.com", "").
			Return(&types.Principal{ID: "identity-9", Email: "invited@example.com"}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "identity-9", gomock.Any(), gomock.Any()).
			Return(&types.Principal{ID: "identity-9", IsAdmin: true}, nil)
		m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "identity-9").Return(nil)
		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "identity-9").
			Return(&types.Principal{ID: "identity-9", IsAdmin: true}, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AdminGranted("op-1", "identity-9")

		if _, err := s.Grant(context.Background(), "invited@example.com", "op-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown everywhere", func(t *testing.T) {
		s, m := setupService(t)

		m.storage.EXPECT().GetPrincipalByEmail(gomock.Any(), "ghost@example.com").
			Return(nil, storage.ErrNotFound)
		m.kratos.EXPECT().GetIdentityIDByEmail(gomock.Any(), "ghost@example.com").
			Return("", nil)

		_, err := s.Grant(context.Background(), "ghost@example.com", "op-1")
		if !errors.Is(err, ErrPrincipalNotFound) {
			t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
		}
	})
}
