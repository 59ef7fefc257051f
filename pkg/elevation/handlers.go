// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/elevation-service/internal/authorization"
	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
	"github.com/canonical/elevation-service/pkg/token"
)

type API struct {
	service    ServiceInterface
	gate       authorization.OperatorGateInterface
	principals PrincipalProviderInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	gate authorization.OperatorGateInterface,
	principals PrincipalProviderInterface,
	tracer tracing.TracingInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service:    service,
		gate:       gate,
		principals: principals,
		tracer:     tracer,
		logger:     logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/elevation", a.elevate)
	mux.Post("/api/v0/elevation/grant", a.grant)
}

type elevateRequest struct {
	Token string `json:"token"`
}

// elevate lets an authenticated principal redeem an invitation token for
// their own account. The caller's identity comes from the request context,
// never from the payload.
func (a *API) elevate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "elevation.API.elevate")
	defer span.End()

	caller, _ := identity.PrincipalFromContext(ctx)
	if caller == nil {
		httptypes.WriteError(w, http.StatusUnauthorized, httptypes.CodeNotAuthorized, "authentication required")
		return
	}

	var req elevateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "token is required")
		return
	}

	if err := a.service.ElevateViaToken(ctx, req.Token, caller.ID, caller.Email); err != nil {
		a.writeElevationError(w, err)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, map[string]string{"status": "elevated"})
}

type grantRequest struct {
	Email string `json:"email"`
}

func (a *API) grant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "elevation.API.grant")
	defer span.End()

	caller, ok := a.requireOperator(ctx, w, "elevation_grant")
	if !ok {
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "email is required")
		return
	}

	p, err := a.service.Grant(ctx, req.Email, caller.ID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			httptypes.WriteError(w, http.StatusNotFound, httptypes.CodeNotFound, "no principal for that email")
			return
		}
		a.logger.Errorf("grant failed: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "grant failed")
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, p)
}

func (a *API) writeElevationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrTokenNotFound):
		httptypes.WriteError(w, http.StatusNotFound, httptypes.CodeTokenNotFound, "token not found")
	case errors.Is(err, token.ErrTokenExpired):
		httptypes.WriteError(w, http.StatusGone, httptypes.CodeTokenExpired, "token expired")
	case errors.Is(err, token.ErrTokenAlreadyUsed):
		httptypes.WriteError(w, http.StatusConflict, httptypes.CodeTokenAlreadyUsed, "token already used")
	case errors.Is(err, token.ErrEmailMismatch):
		httptypes.WriteError(w, http.StatusForbidden, httptypes.CodeEmailMismatch, "email does not match invitation")
	case errors.Is(err, ErrGrantAfterConsumeFailed):
		// The token is burned but the grant did not land.
		httptypes.WriteError(w, http.StatusBadGateway, httptypes.CodeGrantAfterConsume, "token consumed but grant failed, contact an operator")
	default:
		a.logger.Errorf("elevation failed: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "elevation failed")
	}
}

func (a *API) requireOperator(ctx context.Context, w http.ResponseWriter, action string) (*identity.Principal, bool) {
	caller, _ := identity.PrincipalFromContext(ctx)
	if caller == nil {
		httptypes.WriteError(w, http.StatusUnauthorized, httptypes.CodeNotAuthorized, "authentication required")
		return nil, false
	}

	var record *types.Principal
	if !caller.ServiceAccount {
		p, err := a.principals.GetPrincipalByID(ctx, caller.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.logger.Errorf("failed to resolve caller record: %v", err)
			httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to resolve caller")
			return nil, false
		}
		record = p
	}

	ok, err := a.gate.IsOperator(ctx, caller, record)
	if err != nil {
		a.logger.Errorf("operator check failed: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "operator check failed")
		return nil, false
	}
	if !ok {
		a.logger.Security().AuthzFailure(caller.ID, action)
		httptypes.WriteError(w, http.StatusForbidden, httptypes.CodeNotAuthorized, "operator access required")
		return nil, false
	}

	return caller, true
}
