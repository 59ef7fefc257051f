// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
	"github.com/canonical/elevation-service/pkg/token"
)

//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_webhooks.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestService_HandleRegistration(t *testing.T) {
	identityID := "identity-123"
	email := "user@example.com"

	testCases := []struct {
		name        string
		event       *RegistrationEvent
		setupMocks  func(*MockStorageInterface, *MockElevatorInterface, *MockLoggerInterface)
		expectedErr bool
	}{
		{
			name:  "success without token",
			event: &RegistrationEvent{Identity: KratosIdentity{ID: identityID, Traits: KratosTraits{Email: email}}},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
				mockStorage.EXPECT().CreatePrincipal(gomock.Any(), identityID, email, "").
					Return(&types.Principal{ID: identityID, Email: email}, nil)
			},
			expectedErr: false,
		},
		{
			name:  "success with token",
			event: &RegistrationEvent{Identity: KratosIdentity{ID: identityID, Traits: KratosTraits{Email: "User@Example.com", Name: "User"}}, InvitationToken: "value"},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
				mockStorage.EXPECT().CreatePrincipal(gomock.Any(), identityID, email, "User").
					Return(&types.Principal{ID: identityID, Email: email}, nil)
				mockElevator.EXPECT().ElevateViaToken(gomock.Any(), "value", identityID, email).Return(nil)
				mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any())
			},
			expectedErr: false,
		},
		{
			name:  "replayed delivery tolerates duplicate row",
			event: &RegistrationEvent{Identity: KratosIdentity{ID: identityID, Traits: KratosTraits{Email: email}}},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
				mockStorage.EXPECT().CreatePrincipal(gomock.Any(), identityID, email, "").
					Return(nil, storage.ErrDuplicateKey)
			},
			expectedErr: false,
		},
		{
			name:  "elevation failure does not fail registration",
			event: &RegistrationEvent{Identity: KratosIdentity{ID: identityID, Traits: KratosTraits{Email: email}}, InvitationToken: "value"},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
				mockStorage.EXPECT().CreatePrincipal(gomock.Any(), identityID, email, "").
					Return(&types.Principal{ID: identityID, Email: email}, nil)
				mockElevator.EXPECT().ElevateViaToken(gomock.Any(), "value", identityID, email).
					Return(token.ErrTokenExpired)
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any(), gomock.Any())
			},
			expectedErr: false,
		},
		{
			name:  "error - empty identity id",
			event: &RegistrationEvent{Identity: KratosIdentity{Traits: KratosTraits{Email: email}}},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
			},
			expectedErr: true,
		},
		{
			name:  "error - failed to create principal",
			event: &RegistrationEvent{Identity: KratosIdentity{ID: identityID, Traits: KratosTraits{Email: email}}},
			setupMocks: func(mockStorage *MockStorageInterface, mockElevator *MockElevatorInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any(), gomock.Any())
				mockStorage.EXPECT().CreatePrincipal(gomock.Any(), identityID, email, "").
					Return(nil, errors.New("storage error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockElevator := NewMockElevatorInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(mockStorage, mockElevator, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "webhooks.Service.HandleRegistration").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage, mockElevator, mockLogger)

			err := s.HandleRegistration(context.Background(), tc.event)

			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
