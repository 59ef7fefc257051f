// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package principal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/elevation-service/internal/guard"
	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/types"
)

type apiMocks struct {
	service  *MockServiceInterface
	gate     *MockOperatorGateInterface
	logger   *MockLoggerInterface
	security *MockSecurityLoggerInterface
}

func setupAPI(t *testing.T) (*chi.Mux, *apiMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &apiMocks{
		service:  NewMockServiceInterface(ctrl),
		gate:     NewMockOperatorGateInterface(ctrl),
		logger:   NewMockLoggerInterface(ctrl),
		security: NewMockSecurityLoggerInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		}).AnyTimes()

	mux := chi.NewMux()
	NewAPI(m.service, m.gate, mockTracer, m.logger).RegisterEndpoints(mux)

	return mux, m
}

func asPrincipal(r *http.Request, p *identity.Principal) *http.Request {
	return r.WithContext(identity.WithPrincipal(r.Context(), p))
}

func TestAPI_Show(t *testing.T) {
	t.Run("own record", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}
		m.service.EXPECT().GetPrincipal(gomock.Any(), "user-1").
			Return(&types.Principal{ID: "user-1", Email: "user@example.com"}, nil)

		req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v0/principals/user-1", nil), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("other record needs operator", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}
		record := &types.Principal{ID: "user-1"}

		m.service.EXPECT().GetPrincipal(gomock.Any(), "user-1").Return(record, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), caller, record).Return(false, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AuthzFailure("user-1", "principal_show")

		req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v0/principals/user-2", nil), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		mux, _ := setupAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v0/principals/user-1", nil)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}
		m.service.EXPECT().GetPrincipal(gomock.Any(), "user-1").
			Return(nil, storage.ErrNotFound)

		req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/v0/principals/user-1", nil), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestAPI_Update(t *testing.T) {
	t.Run("self profile update uses own identity", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1", Email: "user@example.com"}

		m.service.EXPECT().UpdatePrincipal(gomock.Any(), "user-1", gomock.Any(), caller).
			DoAndReturn(func(_ context.Context, id string, patch storage.PrincipalPatch, _ *identity.Principal) (*types.Principal, error) {
				if patch.Name == nil || *patch.Name != "New Name" {
					t.Errorf("expected name patch, got %+v", patch)
				}
				return &types.Principal{ID: id, Name: "New Name"}, nil
			})

		req := asPrincipal(httptest.NewRequest(http.MethodPut, "/api/v0/principals/user-1", strings.NewReader(`{"name": "New Name"}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("self elevation is rejected", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}

		m.service.EXPECT().UpdatePrincipal(gomock.Any(), "user-1", gomock.Any(), caller).
			Return(nil, guard.ErrSelfElevationForbidden)

		req := asPrincipal(httptest.NewRequest(http.MethodPut, "/api/v0/principals/user-1", strings.NewReader(`{"is_admin": true}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}

		var resp httptypes.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Code != httptypes.CodeSelfElevationForbidden {
			t.Errorf("expected code %s, got %s", httptypes.CodeSelfElevationForbidden, resp.Code)
		}
	})

	t.Run("operator writes another record in trusted context", func(t *testing.T) {
		mux, m := setupAPI(t)

		operator := &identity.Principal{ID: "op-1", Email: "op@example.com"}
		opRecord := &types.Principal{ID: "op-1", IsAdmin: true}

		m.service.EXPECT().GetPrincipal(gomock.Any(), "op-1").Return(opRecord, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), operator, opRecord).Return(true, nil)
		m.service.EXPECT().UpdatePrincipal(gomock.Any(), "user-2", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, id string, patch storage.PrincipalPatch, writer *identity.Principal) (*types.Principal, error) {
				if writer == nil || !writer.ServiceAccount || writer.ID != "op-1" {
					t.Errorf("expected trusted writer keeping operator ID, got %+v", writer)
				}
				return &types.Principal{ID: id, IsAdmin: true}, nil
			})

		req := asPrincipal(httptest.NewRequest(http.MethodPut, "/api/v0/principals/user-2", strings.NewReader(`{"is_admin": true}`)), operator)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("non operator cannot touch another record", func(t *testing.T) {
		mux, m := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}
		record := &types.Principal{ID: "user-1"}

		m.service.EXPECT().GetPrincipal(gomock.Any(), "user-1").Return(record, nil)
		m.gate.EXPECT().IsOperator(gomock.Any(), caller, record).Return(false, nil)
		m.logger.EXPECT().Security().Return(m.security)
		m.security.EXPECT().AuthzFailure("user-1", "principal_update")

		req := asPrincipal(httptest.NewRequest(http.MethodPut, "/api/v0/principals/user-2", strings.NewReader(`{"name": "x"}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}
	})

	t.Run("empty patch", func(t *testing.T) {
		mux, _ := setupAPI(t)

		caller := &identity.Principal{ID: "user-1"}

		req := asPrincipal(httptest.NewRequest(http.MethodPut, "/api/v0/principals/user-1", strings.NewReader(`{}`)), caller)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}
