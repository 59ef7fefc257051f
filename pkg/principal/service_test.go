// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package principal

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/guard"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package principal -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package principal -destination ./mock_authorization.go -source=../../internal/authorization/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package principal -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package principal -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package principal -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

type serviceMocks struct {
	storage  *MockStorageInterface
	authz    *MockAuthorizerInterface
	logger   *MockLoggerInterface
	security *MockSecurityLoggerInterface
}

func setupService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &serviceMocks{
		storage:  NewMockStorageInterface(ctrl),
		authz:    NewMockAuthorizerInterface(ctrl),
		logger:   NewMockLoggerInterface(ctrl),
		security: NewMockSecurityLoggerInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()
	mockMonitor := NewMockMonitorInterface(ctrl)

	s := NewService(m.storage, m.authz, mockTracer, mockMonitor, m.logger)

	return s, m
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func TestService_GetPrincipal(t *testing.T) {
	s, m := setupService(t)

	m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
		Return(&types.Principal{ID: "principal-1", Email: "user@example.com"}, nil)

	p, err := s.GetPrincipal(context.Background(), "principal-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "principal-1" {
		t.Errorf("expected principal-1, got %q", p.ID)
	}
}

func TestService_UpdatePrincipalNameOnly(t *testing.T) {
	s, m := setupService(t)

	writer := &identity.Principal{ID: "principal-1"}
	patch := storage.PrincipalPatch{Name: strPtr("New Name")}

	m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
		Return(&types.Principal{ID: "principal-1"}, nil)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
		Return(&types.Principal{ID: "principal-1", Name: "New Name"}, nil)

	p, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "New Name" {
		t.Errorf("expected updated name, got %q", p.Name)
	}
}

func TestService_UpdatePrincipalSelfElevationIsLogged(t *testing.T) {
	s, m := setupService(t)

	writer := &identity.Principal{ID: "principal-1"}
	patch := storage.PrincipalPatch{IsAdmin: boolPtr(true)}

	m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
		Return(&types.Principal{ID: "principal-1"}, nil)
	m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
		Return(nil, guard.ErrSelfElevationForbidden)
	m.logger.EXPECT().Security().Return(m.security)
	m.security.EXPECT().SelfElevationBlocked("principal-1")

	_, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer)
	if !errors.Is(err, guard.ErrSelfElevationForbidden) {
		t.Fatalf("expected ErrSelfElevationForbidden, got %v", err)
	}
}

func TestService_UpdatePrincipalMirrorsAdminFlag(t *testing.T) {
	writer := &identity.Principal{ID: "op-1", ServiceAccount: true}

	t.Run("promotion assigns tuple", func(t *testing.T) {
		s, m := setupService(t)

		patch := storage.PrincipalPatch{IsAdmin: boolPtr(true)}

		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
			Return(&types.Principal{ID: "principal-1", IsAdmin: false}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").Return(nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AdminGranted("op-1", "principal-1")

		if _, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("demotion removes tuple", func(t *testing.T) {
		s, m := setupService(t)

		patch := storage.PrincipalPatch{IsAdmin: boolPtr(false)}

		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
			Return(&types.Principal{ID: "principal-1", IsAdmin: false}, nil)
		m.authz.EXPECT().RemovePlatformAdmin(gomock.Any(), "principal-1").Return(nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AdminRevoked("op-1", "principal-1")

		if _, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no delta skips mirror", func(t *testing.T) {
		s, m := setupService(t)

		patch := storage.PrincipalPatch{IsAdmin: boolPtr(true)}

		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)

		if _, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("mirror failure propagates", func(t *testing.T) {
		s, m := setupService(t)

		patch := storage.PrincipalPatch{IsAdmin: boolPtr(true)}

		m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "principal-1").
			Return(&types.Principal{ID: "principal-1", IsAdmin: false}, nil)
		m.storage.EXPECT().UpdatePrincipal(gomock.Any(), "principal-1", patch, writer).
			Return(&types.Principal{ID: "principal-1", IsAdmin: true}, nil)
		m.authz.EXPECT().AssignPlatformAdmin(gomock.Any(), "principal-1").
			Return(errors.New("openfga unavailable"))

		if _, err := s.UpdatePrincipal(context.Background(), "principal-1", patch, writer); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestService_UpdatePrincipalNotFound(t *testing.T) {
	s, m := setupService(t)

	m.storage.EXPECT().GetPrincipalByID(gomock.Any(), "ghost").
		Return(nil, storage.ErrNotFound)

	_, err := s.UpdatePrincipal(context.Background(), "ghost", storage.PrincipalPatch{Name: strPtr("x")}, &identity.Principal{ID: "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
