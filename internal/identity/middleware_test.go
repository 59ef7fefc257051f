// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/tracing"
)

func setupMiddleware() *Middleware {
	return NewMiddleware(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("", logging.NewNoopLogger()), logging.NewNoopLogger())
}

func TestMiddlewarePopulatesPrincipalFromHeaders(t *testing.T) {
	m := setupMiddleware()

	var got *Principal
	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/status", nil)
	req.Header.Set(IDHeaderName, "identity-1")
	req.Header.Set(EmailHeaderName, "User@Example.com")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected a principal in the request context")
	}
	if got.ID != "identity-1" {
		t.Fatalf("expected principal ID identity-1, got %s", got.ID)
	}
	if got.Email != "user@example.com" {
		t.Fatalf("expected lowercased email, got %s", got.Email)
	}
	if got.ServiceAccount {
		t.Fatal("headers must never yield a service account principal")
	}
}

func TestMiddlewareWithoutHeadersLeavesRequestAnonymous(t *testing.T) {
	m := setupMiddleware()

	var found bool
	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = PrincipalFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v0/status", nil))

	if found {
		t.Fatal("expected an anonymous request context")
	}
}

func TestMiddlewareNeverOverwritesVerifiedPrincipal(t *testing.T) {
	m := setupMiddleware()

	authenticated := &Principal{ID: "verified-1", Email: "verified@example.com", ServiceAccount: true}
	authenticate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), authenticated)))
		})
	}

	var got *Principal
	handler := authenticate(m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v0/elevation/grant", nil)
	req.Header.Set(IDHeaderName, "victim-admin-id")
	req.Header.Set(EmailHeaderName, "admin@example.com")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected a principal in the request context")
	}
	if got.ID != "verified-1" {
		t.Fatalf("expected the verified principal to survive, got ID %s", got.ID)
	}
}
