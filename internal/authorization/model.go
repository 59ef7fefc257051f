// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/language/pkg/go/transformer"
)

const v0Schema = `model
  schema 1.1

type user

type platform
  relations
    define admin: [user]
`

type AuthorizationModelProvider struct {
	version string
}

func NewAuthorizationModelProvider(version string) *AuthorizationModelProvider {
	p := new(AuthorizationModelProvider)

	p.version = version

	return p
}

func (p *AuthorizationModelProvider) GetModel() *fga.AuthorizationModel {
	var schema string
	switch p.version {
	case "v0":
		schema = v0Schema
	default:
		panic(fmt.Sprintf("unknown authorization model version %q", p.version))
	}

	modelJSON, err := transformer.TransformDSLToJSON(schema)
	if err != nil {
		panic(fmt.Sprintf("invalid authorization model schema: %s", err))
	}

	model := new(fga.AuthorizationModel)
	if err := json.Unmarshal([]byte(modelJSON), model); err != nil {
		panic(fmt.Sprintf("failed to parse authorization model: %s", err))
	}

	return model
}
