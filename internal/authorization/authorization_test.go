// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/openfga"
	"github.com/canonical/elevation-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestAuthorizer_Check(t *testing.T) {
	user := "user:123"
	relation := ADMIN_RELATION
	object := PlatformTuple(DEFAULT_PLATFORM)
	contextualTuples := []openfga.Tuple{*openfga.NewTuple("user:789", ADMIN_RELATION, object)}

	testCases := []struct {
		name           string
		setupMocks     func(*MockAuthzClientInterface)
		expectedResult bool
		expectedErr    bool
	}{
		{
			name: "success - allowed",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object, contextualTuples).Return(true, nil)
			},
			expectedResult: true,
			expectedErr:    false,
		},
		{
			name: "success - not allowed",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object, contextualTuples).Return(false, nil)
			},
			expectedResult: false,
			expectedErr:    false,
		},
		{
			name: "error - client error",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), user, relation, object, contextualTuples).Return(false, errors.New("client error"))
			},
			expectedResult: false,
			expectedErr:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.Check").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			result, err := a.Check(context.Background(), user, relation, object, contextualTuples...)

			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if result != tc.expectedResult {
				t.Errorf("expected result %v, got %v", tc.expectedResult, result)
			}
		})
	}
}

func TestAuthorizer_ValidateModel(t *testing.T) {
	testCases := []struct {
		name        string
		setupMocks  func(*MockAuthzClientInterface)
		expectedErr error
	}{
		{
			name: "success - model matches",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			expectedErr: nil,
		},
		{
			name: "error - model mismatch",
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			expectedErr: ErrInvalidAuthModel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.ValidateModel").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			err := a.ValidateModel(context.Background())

			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestAuthorizer_PlatformAdminTuples(t *testing.T) {
	userId := "user-1"

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockAuthzClientInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()

	mockClient.EXPECT().WriteTuple(gomock.Any(), UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM)).Return(nil)
	if err := a.AssignPlatformAdmin(context.Background(), userId); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mockClient.EXPECT().DeleteTuple(gomock.Any(), UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM)).Return(nil)
	if err := a.RemovePlatformAdmin(context.Background(), userId); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mockClient.EXPECT().Check(gomock.Any(), UserTuple(userId), ADMIN_RELATION, PlatformTuple(DEFAULT_PLATFORM)).Return(true, nil)
	ok, err := a.IsPlatformAdmin(context.Background(), userId)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected platform admin check to pass")
	}
}

func TestOperatorGate_IsOperator(t *testing.T) {
	adminRecord := &types.Principal{ID: "user-1", IsAdmin: true}
	plainRecord := &types.Principal{ID: "user-2", IsAdmin: false}

	testCases := []struct {
		name           string
		caller         *identity.Principal
		record         *types.Principal
		setupMocks     func(*MockAuthorizerInterface)
		expectedResult bool
		expectedErr    bool
	}{
		{
			name:           "anonymous caller denied",
			caller:         nil,
			record:         nil,
			setupMocks:     func(m *MockAuthorizerInterface) {},
			expectedResult: false,
		},
		{
			name:           "service account allowed without record",
			caller:         &identity.Principal{ID: "system:elevation-service", ServiceAccount: true},
			record:         nil,
			setupMocks:     func(m *MockAuthorizerInterface) {},
			expectedResult: true,
		},
		{
			name:           "human without record denied",
			caller:         &identity.Principal{ID: "user-3"},
			record:         nil,
			setupMocks:     func(m *MockAuthorizerInterface) {},
			expectedResult: false,
		},
		{
			name:           "human without admin flag denied",
			caller:         &identity.Principal{ID: "user-2"},
			record:         plainRecord,
			setupMocks:     func(m *MockAuthorizerInterface) {},
			expectedResult: false,
		},
		{
			name:   "admin confirmed by platform check",
			caller: &identity.Principal{ID: "user-1"},
			record: adminRecord,
			setupMocks: func(m *MockAuthorizerInterface) {
				m.EXPECT().IsPlatformAdmin(gomock.Any(), "user-1").Return(true, nil)
			},
			expectedResult: true,
		},
		{
			name:   "admin flag without platform tuple denied",
			caller: &identity.Principal{ID: "user-1"},
			record: adminRecord,
			setupMocks: func(m *MockAuthorizerInterface) {
				m.EXPECT().IsPlatformAdmin(gomock.Any(), "user-1").Return(false, nil)
			},
			expectedResult: false,
		},
		{
			name:   "platform check error propagates",
			caller: &identity.Principal{ID: "user-1"},
			record: adminRecord,
			setupMocks: func(m *MockAuthorizerInterface) {
				m.EXPECT().IsPlatformAdmin(gomock.Any(), "user-1").Return(false, errors.New("openfga unavailable"))
			},
			expectedResult: false,
			expectedErr:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAuthz := NewMockAuthorizerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			g := NewOperatorGate(mockAuthz, mockTracer, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.OperatorGate.IsOperator").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockAuthz)

			result, err := g.IsOperator(context.Background(), tc.caller, tc.record)

			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if result != tc.expectedResult {
				t.Errorf("expected result %v, got %v", tc.expectedResult, result)
			}
		})
	}
}
