// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/canonical/elevation-service/internal/authorization"
	"github.com/canonical/elevation-service/internal/kratos"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/pkg/elevation"
	"github.com/canonical/elevation-service/pkg/metrics"
	"github.com/canonical/elevation-service/pkg/principal"
	"github.com/canonical/elevation-service/pkg/status"
	"github.com/canonical/elevation-service/pkg/token"
	"github.com/canonical/elevation-service/pkg/webhooks"
)

// RouterConfig carries the request-independent knobs NewRouter needs.
type RouterConfig struct {
	RegistrationBaseURL string
	DefaultValidity     time.Duration
	// WebhookAPIKey authenticates Kratos webhook deliveries; an empty key
	// disables the webhook endpoint.
	WebhookAPIKey string
	// Authenticate is the authentication middleware, nil when the JWT
	// layer is disabled and a fronting proxy injects identity headers.
	Authenticate func(http.Handler) http.Handler
}

func NewRouter(
	c *RouterConfig,
	s storage.StorageInterface,
	authorizer authorization.AuthorizerInterface,
	gate authorization.OperatorGateInterface,
	kratosClient kratos.ClientInterface,
	identityMiddleware func(http.Handler) http.Handler,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
	)
	if c.Authenticate != nil {
		middlewares = append(middlewares, c.Authenticate)
	}
	if identityMiddleware != nil {
		middlewares = append(middlewares, identityMiddleware)
	}

	router.Use(middlewares...)

	tokenService := token.NewService(s, c.RegistrationBaseURL, tracer, monitor, logger)
	elevationService := elevation.NewService(tokenService, s, authorizer, kratosClient, tracer, monitor, logger)
	principalService := principal.NewService(s, authorizer, tracer, monitor, logger)
	webhooksService := webhooks.NewService(s, elevationService, tracer, monitor, logger)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)
	token.NewAPI(tokenService, gate, s, c.DefaultValidity, tracer, logger).RegisterEndpoints(router)
	elevation.NewAPI(elevationService, gate, s, tracer, logger).RegisterEndpoints(router)
	principal.NewAPI(principalService, gate, tracer, logger).RegisterEndpoints(router)
	webhooks.NewAPI(webhooksService, c.WebhookAPIKey, logger).RegisterEndpoints(router)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
