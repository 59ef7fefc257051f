// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"
)

func TestAPI_Registration(t *testing.T) {
	apiKey := "webhook-secret"

	tests := []struct {
		name           string
		apiKey         string
		requestKey     string
		requestBody    interface{}
		setupMocks     func(*MockServiceInterface, *MockLoggerInterface, *MockSecurityLoggerInterface)
		expectedStatus int
	}{
		{
			name:       "success",
			apiKey:     apiKey,
			requestKey: apiKey,
			requestBody: &RegistrationEvent{
				Identity:        KratosIdentity{ID: "identity-123", Traits: KratosTraits{Email: "user@example.com"}},
				InvitationToken: "value",
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockSvc.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ interface{}, event *RegistrationEvent) error {
						if event.Identity.ID != "identity-123" || event.InvitationToken != "value" {
							t.Errorf("unexpected event: %+v", event)
						}
						return nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:       "missing api key",
			apiKey:     apiKey,
			requestKey: "",
			requestBody: &RegistrationEvent{
				Identity: KratosIdentity{ID: "identity-123", Traits: KratosTraits{Email: "user@example.com"}},
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure("anonymous", "webhook_registration")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong api key",
			apiKey:     apiKey,
			requestKey: "guessed-secret",
			requestBody: &RegistrationEvent{
				Identity: KratosIdentity{ID: "identity-123", Traits: KratosTraits{Email: "user@example.com"}},
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure("anonymous", "webhook_registration")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "unconfigured key rejects even empty header",
			apiKey:     "",
			requestKey: "",
			requestBody: &RegistrationEvent{
				Identity: KratosIdentity{ID: "identity-123", Traits: KratosTraits{Email: "user@example.com"}},
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure("anonymous", "webhook_registration")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:        "invalid request body",
			apiKey:      apiKey,
			requestKey:  apiKey,
			requestBody: "not-json",
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "service error",
			apiKey:     apiKey,
			requestKey: apiKey,
			requestBody: &RegistrationEvent{
				Identity: KratosIdentity{ID: "identity-123", Traits: KratosTraits{Email: "user@example.com"}},
			},
			setupMocks: func(mockSvc *MockServiceInterface, mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockSvc.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).
					Return(errors.New("storage error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockServiceInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)
			tc.setupMocks(mockSvc, mockLogger, mockSecurity)

			mux := chi.NewMux()
			NewAPI(mockSvc, tc.apiKey, mockLogger).RegisterEndpoints(mux)

			var body bytes.Buffer
			if s, ok := tc.requestBody.(string); ok {
				body.WriteString(s)
			} else if err := json.NewEncoder(&body).Encode(tc.requestBody); err != nil {
				t.Fatalf("failed to encode request body: %v", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v0/webhooks/registration", &body)
			if tc.requestKey != "" {
				req.Header.Set(APIKeyHeaderName, tc.requestKey)
			}
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
