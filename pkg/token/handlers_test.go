// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/types"
)

type apiMocks struct {
	service    *MockServiceInterface
	gate       *MockOperatorGateInterface
	principals *MockPrincipalProviderInterface
	tracer     *MockTracingInterface
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
		tracer:     NewMockTracingInterface(ctrl),
		logger:     NewMockLoggerInterface(ctrl),
		security:   NewMockSecurityLoggerInterface(ctrl),
	}

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()

	mux := chi.NewMux()
	NewAPI(m.service, m.gate, m.principals, 168*time.Hour, m.tracer, m.logger).RegisterEndpoints(mux)

	return mux, m
}

func asPrincipal(r *http.Request, p *identity.Principal) *http.Request {
	return r.WithContext(identity.WithPrincipal(r.Context(), p))
}

func TestAPI_IssueOperatorOnly(t *testing.T) {
	operator := &identity.Principal{ID: "system:ops", ServiceAccount: true}
	human := &identity.Principal{ID: "user-1", Email: "user@example.com"}

	t.Run("service account issues token", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.gate.EXPECT().IsOperator(gomock.Any(), operator, nil).Return(true, nil)
		m.service.EXPECT().Issue(gomock.Any(), "invited@example.com", 24*time.Hour, "system:ops").
			Return(&IssuedToken{Token: "value", Email: "invited@example.com", RegistrationURL: "https://login.example.com/register?token=value"}, nil)

		body := strings.NewReader(`{"email": "invited@example.com", "validity": "24h"}`)
		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/tokens", body), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		var issued IssuedToken
		if err := json.NewDecoder(rr.Body).Decode(&issued); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if issued.Token != "value" {
			t.Errorf("expected token value, got %q", issued.Token)
		}
	})

	t.Run("non-operator denied loudly", func(t *testing.T) {
		mux, m := setupAPI(t)

		record := &types.Principal{ID: "user-1", IsAdmin: false}
		m.principals.EXPECT().GetPrincipalByID(gomock.Any(), "user-1").Return(record, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), human, record).Return(false, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AuthzFailure("user-1", "token_issue")

		body := strings.NewReader(`{"email": "invited@example.com"}`)
		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/tokens", body), human)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}

		var resp httptypes.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode error: %v", err)
		}
		if resp.Code != httptypes.CodeNotAuthorized {
			t.Errorf("expected code %s, got %s", httptypes.CodeNotAuthorized, resp.Code)
		}
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		mux, _ := setupAPI(t)

		body := strings.NewReader(`{"email": "invited@example.com"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v0/tokens", body)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("invalid email maps to 400", func(t *testing.T) {
		mux, m := setupAPI(t)

		m.gate.EXPECT().IsOperator(gomock.Any(), operator, nil).Return(true, nil)
		m.service.EXPECT().Issue(gomock.Any(), "nope", 168*time.Hour, "system:ops").Return(nil, ErrInvalidEmail)

		body := strings.NewReader(`{"email": "nope"}`)
		req := asPrincipal(httptest.NewRequest(http.MethodPost, "/api/v0/tokens", body), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestAPI_ShowIsPublic(t *testing.T) {
	mux, m := setupAPI(t)

	m.service.EXPECT().ValidateForDisplay(gomock.Any(), "value").
		Return(&DisplayView{Email: "invited@example.com", IsValid: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/tokens/value", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var view DisplayView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !view.IsValid || view.Email != "invited@example.com" {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestAPI_DeleteReturnsNoContent(t *testing.T) {
	operator := &identity.Principal{ID: "system:ops", ServiceAccount: true}

	mux, m := setupAPI(t)

	m.gate.EXPECT().IsOperator(gomock.Any(), operator, nil).Return(true, nil)
	m.service.EXPECT().Delete(gomock.Any(), "missing").Return(nil)

	req := asPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v0/tokens/missing", nil), operator)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
}
