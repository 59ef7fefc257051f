// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/types"
	"github.com/canonical/elevation-service/pkg/token"
)

type apiMocks struct {
	service    *MockServiceInterface
	gate       *MockOperatorGateInterface
	principals *MockPrincipalProviderInterface
	logger     *MockLoggerInterface
	security   *MockSecurityLoggerInterface
}

func setupAPI(t *testing.T) (*chi.Mux, *apiMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &apiMocks{
		service:    NewMockServiceInterface(ctrl),
		gate:       NewMockOperatorGateInterface(ctrl),
		principals: NewMockPrincipalProviderInterface(ctrl),
		logger:     NewMockLoggerInterface(ctrl),
		security:   NewMockSecurityLoggerInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()

	mux := chi.NewMux()
	NewAPI(m.service, m.gate, m.principals, mockTracer, m.logger).RegisterEndpoints(mux)

	return mux, m
}

func asPrincipal(r *http.Request, p *identity.Principal) *http.Request {
	return r.WithContext(identity.WithPrincipal(r.Context(), p))
}

func TestAPI_Elevate(t *testing.T) {
	caller := &identity.Principal{ID: "user-1", Email: "user@example.com"}

	t.Run("success", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.service.EXPECT().ElevateViaToken(gomock.Any(), "value", "user-1", "user@example.com").Return(nil)

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation", strings.NewReader(`{"token": "value"}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		mux, _ := setupAPI(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v0/elevation", strings.NewReader(`{"token": "value"}`))
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		mux, _ := setupAPI(t)

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation", strings.NewReader(`{}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestAPI_ElevateErrorMapping(t *testing.T) {
	caller := &identity.Principal{ID: "user-1", Email: "user@example.com"}

	testCases := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{"token not found", token.ErrTokenNotFound, http.StatusNotFound, httptypes.CodeTokenNotFound},
		{"token expired", token.ErrTokenExpired, http.StatusGone, httptypes.CodeTokenExpired},
		{"token already used", token.ErrTokenAlreadyUsed, http.StatusConflict, httptypes.CodeTokenAlreadyUsed},
		{"email mismatch", token.ErrEmailMismatch, http.StatusForbidden, httptypes.CodeEmailMismatch},
		{"grant after consume failed", ErrGrantAfterConsumeFailed, http.StatusBadGateway, httptypes.CodeGrantAfterConsume},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux, m := setupAPI(t)

			m.service.EXPECT().ElevateViaToken(gomock.Any(), "value", "user-1", "user@example.com").
				Return(tc.serviceErr)

			req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation", strings.NewReader(`{"token": "value"}`)), caller)
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedStatus, rr.Code, rr.Body.String())
			}

			var resp httptypes.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tc.expectedCode {
				t.Errorf("expected code %s, got %s", tc.expectedCode, resp.Code)
			}
		})
	}
}

func TestAPI_Grant(t *testing.T) {
	operator := &identity.Principal{ID: "op-1", Email: "op@example.com"}
	opRecord := &types.Principal{ID: "op-1", IsAdmin: true}

	t.Run("operator grants by email", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.principals.EXPECT().GetPrincipalByID(gomock.Any(), "op-1").Return(opRecord, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), operator, opRecord).Return(true, nil)
		m.service.EXPECT().Grant(gomock.Any(), "invited@example.com", "op-1").
			Return(&types.Principal{ID: "principal-1", Email: "invited@example.com", IsAdmin: true}, nil)

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation/grant", strings.NewReader(`{"email": "invited@example.com"}`)), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var p types.Principal
		if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !p.IsAdmin {
			t.Error("expected granted principal to be admin")
		}
	})

	t.Run("non operator denied", func(t *testing.T) {
		mux, m := setupAPI(t)

		human := &identity.Principal{ID: "user-1"}
		record := &types.Principal{ID: "user-1"}

		m.principals.EXPECT().GetPrincipalByID(gomock.Any(), "user-1").Return(record, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), human, record).Return(false, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AuthzFailure("user-1", "elevation_grant")

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation/grant", strings.NewReader(`{"email": "invited@example.com"}`)), human)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.principals.EXPECT().GetPrincipalByID(gomock.Any(), "op-1").Return(opRecord, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), operator, opRecord).Return(true, nil)
		m.service.EXPECT().Grant(gomock.Any(), "ghost@example.com", "op-1").
			Return(nil, ErrPrincipalNotFound)

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation/grant", strings.NewReader(`{"email": "ghost@example.com"}`)), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("grant failure is internal", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.principals.EXPECT().GetPrincipalByID(gomock.Any(), "op-1").Return(opRecord, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), operator, opRecord).Return(true, nil)
		m.service.EXPECT().Grant(gomock.Any(), "invited@example.com", "op-1").
			Return(nil, errors.New("connection reset"))
		m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any())

		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/elevation/grant", strings.NewReader(`{"email": "invited@example.com"}`)), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rr.Code)
		}
	})
}
