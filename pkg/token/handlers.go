// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package token

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/elevation-service/internal/authorization"
	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

type API struct {
	service         ServiceInterface
	gate            authorization.OperatorGateInterface
	principals      PrincipalProviderInterface
	defaultValidity time.Duration

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	gate authorization.OperatorGateInterface,
	principals PrincipalProviderInterface,
	defaultValidity time.Duration,
	tracer tracing.TracingInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service:         service,
		gate:            gate,
		principals:      principals,
		defaultValidity: defaultValidity,
		tracer:          tracer,
		logger:          logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/tokens", a.issue)
	mux.Get("/api/v0/tokens", a.list)
	mux.Get("/api/v0/tokens/{value}", a.show)
	mux.Delete("/api/v0/tokens/{value}", a.delete)
}

type issueRequest struct {
	Email    string `json:"email"`
	Validity string `json:"validity,omitempty"`
}

func (a *API) issue(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "token.API.issue")
	defer span.End()

	caller, ok := a.requireOperator(ctx, w, "token_issue")
	if !ok {
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "invalid request body")
		return
	}

	validity := a.defaultValidity
	if req.Validity != "" {
		d, err := time.ParseDuration(req.Validity)
		if err != nil {
			httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "invalid validity duration")
			return
		}
		validity = d
	}

	issued, err := a.service.Issue(ctx, req.Email, validity, caller.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidEmail, "invalid email address")
		case errors.Is(err, ErrInvalidValidity):
			httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "validity must be positive")
		case errors.Is(err, storage.ErrDuplicateKey):
			httptypes.WriteError(w, http.StatusConflict, httptypes.CodeDuplicateValue, "token value collision")
		default:
			a.logger.Errorf("failed to issue token: %v", err)
			httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to issue token")
		}
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, issued)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "token.API.list")
	defer span.End()

	if _, ok := a.requireOperator(ctx, w, "token_list"); !ok {
		return
	}

	views, err := a.service.List(ctx)
	if err != nil {
		a.logger.Errorf("failed to list tokens: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to list tokens")
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, views)
}

// show is public: it backs the invitation banner shown before a recipient
// registers, and never reveals whether unknown values exist.
func (a *API) show(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "token.API.show")
	defer span.End()

	view, err := a.service.ValidateForDisplay(ctx, chi.URLParam(r, "value"))
	if err != nil {
		a.logger.Errorf("failed to validate token: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to validate token")
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, view)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "token.API.delete")
	defer span.End()

	if _, ok := a.requireOperator(ctx, w, "token_delete"); !ok {
		return
	}

	if err := a.service.Delete(ctx, chi.URLParam(r, "value")); err != nil {
		a.logger.Errorf("failed to delete token: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to delete token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireOperator resolves the caller and runs the operator gate. Denials
// are written to the response and the security log.
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
