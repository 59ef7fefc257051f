// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/openfga"
	"github.com/canonical/elevation-service/internal/types"
)

type AuthorizerInterface interface {
	Check(context.Context, string, string, string, ...openfga.Tuple) (bool, error)
	ValidateModel(context.Context) error

	// AssignPlatformAdmin mirrors a granted is_admin flag into the
	// authorization system so platform-wide checks see the new admin.
	AssignPlatformAdmin(context.Context, string) error
	RemovePlatformAdmin(context.Context, string) error
	IsPlatformAdmin(context.Context, string) (bool, error)
}

type AuthzClientInterface interface {
	ListObjects(context.Context, string, string, string) ([]string, error)
	Check(context.Context, string, string, string, ...openfga.Tuple) (bool, error)
	ReadModel(context.Context) (*fga.AuthorizationModel, error)
	CompareModel(context.Context, fga.AuthorizationModel) (bool, error)
	ReadTuples(context.Context, string, string, string, string) (*client.ClientReadResponse, error)
	WriteTuple(ctx context.Context, user, relation, object string) error
	DeleteTuple(ctx context.Context, user, relation, object string) error
	DeleteTuples(context.Context, ...openfga.Tuple) error
}

type OperatorGateInterface interface {
	IsOperator(ctx context.Context, caller *identity.Principal, record *types.Principal) (bool, error)
}
