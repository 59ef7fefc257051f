// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/elevation-service/internal/logging"
)

// APIKeyHeaderName carries the shared secret Kratos is configured to send
// with each webhook delivery.
const APIKeyHeaderName = "X-Webhook-Api-Key"

type API struct {
	service ServiceInterface
	apiKey  string

	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, apiKey string, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/webhooks/registration", a.registration)
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	if !a.authenticated(r) {
		a.logger.Security().AuthzFailure("anonymous", "webhook_registration")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event RegistrationEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.service.HandleRegistration(r.Context(), &event); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// authenticated checks the delivery against the configured shared secret.
// An unset secret disables the endpoint rather than opening it.
func (a *API) authenticated(r *http.Request) bool {
	if a.apiKey == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(r.Header.Get(APIKeyHeaderName)), []byte(a.apiKey)) == 1
}
