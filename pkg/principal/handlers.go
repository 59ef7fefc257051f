// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package principal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/elevation-service/internal/authorization"
	"github.com/canonical/elevation-service/internal/guard"
	httptypes "github.com/canonical/elevation-service/internal/http/types"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/storage"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

type API struct {
	service ServiceInterface
	gate    authorization.OperatorGateInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	gate authorization.OperatorGateInterface,
	tracer tracing.TracingInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service: service,
		gate:    gate,
		tracer:  tracer,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/principals/{id}", a.show)
	mux.Put("/api/v0/principals/{id}", a.update)
}

// show returns a principal record. Callers may read their own record,
// anything else needs operator access.
func (a *API) show(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "principal.API.show")
	defer span.End()

	id := chi.URLParam(r, "id")

	caller, _ := identity.PrincipalFromContext(ctx)
	if caller == nil {
		httptypes.WriteError(w, http.StatusUnauthorized, httptypes.CodeNotAuthorized, "authentication required")
		return
	}

	if caller.ID != id {
		if _, ok := a.requireOperator(ctx, w, "principal_show"); !ok {
			return
		}
	}

	p, err := a.service.GetPrincipal(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httptypes.WriteError(w, http.StatusNotFound, httptypes.CodeNotFound, "principal not found")
			return
		}
		a.logger.Errorf("failed to load principal: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "failed to load principal")
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, p)
}

type updateRequest struct {
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"is_admin"`
}

// update applies a partial update to a principal record. Writes to the
// caller's own record run with the caller's identity so the privilege
// guard sees the real writer. Writes to other records need operator
// access and then run in a trusted context that keeps the operator's ID
// for the audit trail.
func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "principal.API.update")
	defer span.End()

	id := chi.URLParam(r, "id")

	caller, _ := identity.PrincipalFromContext(ctx)
	if caller == nil {
		httptypes.WriteError(w, http.StatusUnauthorized, httptypes.CodeNotAuthorized, "authentication required")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "invalid payload")
		return
	}
	if req.Name == nil && req.IsAdmin == nil {
		httptypes.WriteError(w, http.StatusBadRequest, httptypes.CodeInvalidRequest, "nothing to update")
		return
	}

	writer := caller
	if caller.ID != id && !caller.ServiceAccount {
		if _, ok := a.requireOperator(ctx, w, "principal_update"); !ok {
			return
		}
		writer = &identity.Principal{ID: caller.ID, Email: caller.Email, ServiceAccount: true}
	}

	patch := storage.PrincipalPatch{Name: req.Name, IsAdmin: req.IsAdmin}

	p, err := a.service.UpdatePrincipal(ctx, id, patch, writer)
	if err != nil {
		a.writeUpdateError(w, err)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, p)
}

func (a *API) writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httptypes.WriteError(w, http.StatusNotFound, httptypes.CodeNotFound, "principal not found")
	case errors.Is(err, guard.ErrSelfElevationForbidden):
		httptypes.WriteError(w, http.StatusForbidden, httptypes.CodeSelfElevationForbidden, "cannot change own admin status")
	case errors.Is(err, guard.ErrNotRecordOwner), errors.Is(err, guard.ErrAnonymousWrite):
		httptypes.WriteError(w, http.StatusForbidden, httptypes.CodeNotAuthorized, "write not authorized")
	default:
		a.logger.Errorf("principal update failed: %v", err)
		httptypes.WriteError(w, http.StatusInternalServerError, httptypes.CodeInternal, "principal update failed")
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
		p, err := a.service.GetPrincipal(ctx, caller.ID)
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
