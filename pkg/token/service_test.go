// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package token -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package token -destination ./mock_authorization.go -source=../../internal/authorization/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package token -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package token -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package token -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const testBaseURL = "https://login.example.com"

func setupService(t *testing.T) (*Service, *MockStorageInterface, *MockTracingInterface, *MockLoggerInterface) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	s := NewService(mockStorage, testBaseURL, mockTracer, mockMonitor, mockLogger)

	return s, mockStorage, mockTracer, mockLogger
}

func expectSpan(mockTracer *MockTracingInterface, name string) {
	mockTracer.EXPECT().Start(gomock.Any(), name).
		Return(context.Background(), trace.SpanFromContext(context.Background()))
}

func TestService_Issue(t *testing.T) {
	expiresAt := time.Now().UTC().Add(24 * time.Hour)

	testCases := []struct {
		name        string
		email       string
		validity    time.Duration
		setupMocks  func(*MockStorageInterface, *MockLoggerInterface)
		expectedErr error
	}{
		{
			name:     "success",
			email:    "Invited@Example.com",
			validity: 24 * time.Hour,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockLoggerInterface) {
				mockStorage.EXPECT().
					CreateToken(gomock.Any(), "invited@example.com", "op-1", gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, email, issuedBy, value string, _ time.Time) (*types.InvitationToken, error) {
						return &types.InvitationToken{
							Value:     value,
							Email:     email,
							IssuedBy:  issuedBy,
							ExpiresAt: expiresAt,
						}, nil
					})
			},
		},
		{
			name:        "invalid email",
			email:       "not-an-email",
			validity:    24 * time.Hour,
			setupMocks:  func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedErr: ErrInvalidEmail,
		},
		{
			name:        "empty email",
			email:       "",
			validity:    24 * time.Hour,
			setupMocks:  func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedErr: ErrInvalidEmail,
		},
		{
			name:        "non positive validity",
			email:       "invited@example.com",
			validity:    0,
			setupMocks:  func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedErr: ErrInvalidValidity,
		},
		{
			name:     "duplicate value surfaces loudly",
			email:    "invited@example.com",
			validity: 24 * time.Hour,
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().
					CreateToken(gomock.Any(), "invited@example.com", "op-1", gomock.Any(), gomock.Any()).
					Return(nil, storage.ErrDuplicateKey)
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			expectedErr: storage.ErrDuplicateKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mockStorage, mockTracer, mockLogger := setupService(t)

			expectSpan(mockTracer, "token.Service.Issue")
			tc.setupMocks(mockStorage, mockLogger)

			issued, err := s.Issue(context.Background(), tc.email, tc.validity, "op-1")

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if issued.Email != "invited@example.com" {
				t.Errorf("expected lowercased email, got %q", issued.Email)
			}
			if issued.Token == "" {
				t.Error("expected a token value")
			}
			wantURL := testBaseURL + "/register?token=" + issued.Token
			if issued.RegistrationURL != wantURL {
				t.Errorf("expected registration URL %q, got %q", wantURL, issued.RegistrationURL)
			}
		})
	}
}

func TestService_ValidateForDisplay(t *testing.T) {
	now := time.Now().UTC()
	consumedAt := now.Add(-time.Hour)

	testCases := []struct {
		name         string
		setupMocks   func(*MockStorageInterface)
		expectedView DisplayView
	}{
		{
			name: "unknown value is invalid, not an error",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(nil, storage.ErrNotFound)
			},
			expectedView: DisplayView{IsValid: false},
		},
		{
			name: "active token",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(&types.InvitationToken{
					Email:     "invited@example.com",
					ExpiresAt: now.Add(time.Hour),
				}, nil)
			},
			expectedView: DisplayView{Email: "invited@example.com", IsValid: true},
		},
		{
			name: "expired token",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(&types.InvitationToken{
					Email:     "invited@example.com",
					ExpiresAt: now.Add(-time.Hour),
				}, nil)
			},
			expectedView: DisplayView{Email: "invited@example.com", IsValid: false},
		},
		{
			name: "used token",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(&types.InvitationToken{
					Email:      "invited@example.com",
					ExpiresAt:  now.Add(time.Hour),
					ConsumedAt: &consumedAt,
				}, nil)
			},
			expectedView: DisplayView{Email: "invited@example.com", IsValid: false},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mockStorage, mockTracer, _ := setupService(t)

			expectSpan(mockTracer, "token.Service.ValidateForDisplay")
			tc.setupMocks(mockStorage)

			view, err := s.ValidateForDisplay(context.Background(), "value")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *view != tc.expectedView {
				t.Errorf("expected view %+v, got %+v", tc.expectedView, *view)
			}
		})
	}
}

func TestService_Consume(t *testing.T) {
	now := time.Now().UTC()
	consumedAt := now.Add(-time.Hour)

	active := func() *types.InvitationToken {
		return &types.InvitationToken{
			Value:     "value",
			Email:     "invited@example.com",
			ExpiresAt: now.Add(time.Hour),
		}
	}

	testCases := []struct {
		name           string
		presentedEmail string
		setupMocks     func(*MockStorageInterface)
		expectedErr    error
	}{
		{
			name:           "success with case-insensitive email",
			presentedEmail: "Invited@Example.COM",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(active(), nil)
				mockStorage.EXPECT().MarkTokenConsumed(gomock.Any(), "value", "principal-1").
					Return(&types.InvitationToken{Value: "value", ConsumedAt: &now}, nil)
			},
		},
		{
			name:           "not found",
			presentedEmail: "invited@example.com",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrTokenNotFound,
		},
		{
			name:           "expired",
			presentedEmail: "invited@example.com",
			setupMocks: func(mockStorage *MockStorageInterface) {
				t := active()
				t.ExpiresAt = now.Add(-time.Minute)
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(t, nil)
			},
			expectedErr: ErrTokenExpired,
		},
		{
			name:           "already used",
			presentedEmail: "invited@example.com",
			setupMocks: func(mockStorage *MockStorageInterface) {
				t := active()
				t.ConsumedAt = &consumedAt
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(t, nil)
			},
			expectedErr: ErrTokenAlreadyUsed,
		},
		{
			name:           "email mismatch leaves token active",
			presentedEmail: "other@example.com",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(active(), nil)
			},
			expectedErr: ErrEmailMismatch,
		},
		{
			name:           "lost consumption race",
			presentedEmail: "invited@example.com",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetTokenByValue(gomock.Any(), "value").Return(active(), nil)
				mockStorage.EXPECT().MarkTokenConsumed(gomock.Any(), "value", "principal-1").
					Return(nil, storage.ErrAlreadyConsumed)
			},
			expectedErr: ErrTokenAlreadyUsed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mockStorage, mockTracer, _ := setupService(t)

			expectSpan(mockTracer, "token.Service.Consume")
			tc.setupMocks(mockStorage)

			consumed, err := s.Consume(context.Background(), "value", tc.presentedEmail, "principal-1")

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if consumed.ConsumedAt == nil {
				t.Error("expected consumed token to carry consumed_at")
			}
		})
	}
}

func TestService_ListDerivesStatus(t *testing.T) {
	now := time.Now().UTC()
	consumedAt := now.Add(-time.Hour)

	s, mockStorage, mockTracer, _ := setupService(t)

	expectSpan(mockTracer, "token.Service.List")
	mockStorage.EXPECT().ListTokens(gomock.Any()).Return([]types.InvitationToken{
		{Value: "a", ExpiresAt: now.Add(time.Hour)},
		{Value: "b", ExpiresAt: now.Add(-time.Hour)},
		{Value: "c", ExpiresAt: now.Add(-time.Hour), ConsumedAt: &consumedAt},
	}, nil)

	views, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []types.TokenStatus{types.TokenStatusActive, types.TokenStatusExpired, types.TokenStatusUsed}
	for i, status := range want {
		if views[i].Status != status {
			t.Errorf("token %s: expected status %s, got %s", views[i].Value, status, views[i].Status)
		}
	}
}

func TestService_DeleteIsIdempotent(t *testing.T) {
	s, mockStorage, mockTracer, _ := setupService(t)

	expectSpan(mockTracer, "token.Service.Delete")
	mockStorage.EXPECT().DeleteToken(gomock.Any(), "missing").Return(nil)

	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_IssueTokenValuesAreUnique(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 5; i++ {
		s, mockStorage, mockTracer, _ := setupService(t)

		expectSpan(mockTracer, "token.Service.Issue")
		mockStorage.EXPECT().
			CreateToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email, issuedBy, value string, expiresAt time.Time) (*types.InvitationToken, error) {
				return &types.InvitationToken{Value: value, Email: email, ExpiresAt: expiresAt}, nil
			})

		issued, err := s.Issue(context.Background(), "invited@example.com", time.Hour, "op-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(strings.ReplaceAll(issued.Token, "-", "")) != 32 {
			t.Errorf("expected UUID-shaped token, got %q", issued.Token)
		}
		if seen[issued.Token] {
			t.Fatalf("token value %q repeated", issued.Token)
		}
		seen[issued.Token] = true
	}
}
