// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"net/http"
	"strings"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/tracing"
)

const (
	// IDHeaderName carries the authenticated identity ID, set by the
	// fronting API gateway after session validation.
	IDHeaderName = "X-Authenticated-Identity-Id"
	// EmailHeaderName carries the authenticated identity email.
	EmailHeaderName = "X-Authenticated-Identity-Email"
)

// Middleware populates the request principal from gateway headers. It is
// meant for deployments where an identity-aware proxy terminates sessions;
// the proxy must strip these headers from inbound client traffic.
//
// The ServiceAccount flag is never derived from a header: headers are
// request data and request data is forgeable.
type Middleware struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (m *Middleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "identity.Middleware.HTTPMiddleware")
		defer span.End()

		// An upstream authenticator already resolved the caller; headers
		// can never replace a verified principal.
		if _, ok := PrincipalFromContext(ctx); ok {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		id := r.Header.Get(IDHeaderName)
		if id == "" {
			// anonymous request, handlers decide what is public
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx = WithPrincipal(ctx, &Principal{
			ID:    id,
			Email: strings.ToLower(r.Header.Get(EmailHeaderName)),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
