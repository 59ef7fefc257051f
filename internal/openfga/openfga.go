// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/tracing"
)

type Tuple struct {
	User     string
	Relation string
	Object   string
}

func NewTuple(user, relation, object string) *Tuple {
	t := new(Tuple)

	t.User = user
	t.Relation = relation
	t.Object = object

	return t
}

type Config struct {
	ApiScheme   string
	ApiHost     string
	StoreID     string
	ApiToken    string
	AuthModelID string
	Debug       bool

	Tracer  tracing.TracingInterface
	Monitor monitoring.MonitorInterface
	Logger  logging.LoggerInterface
}

func NewConfig(apiScheme, apiHost, storeID, apiToken, authModelID string, debug bool, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Config {
	c := new(Config)

	c.ApiScheme = apiScheme
	c.ApiHost = apiHost
	c.StoreID = storeID
	c.ApiToken = apiToken
	c.AuthModelID = authModelID
	c.Debug = debug

	c.Tracer = tracer
	c.Monitor = monitor
	c.Logger = logger

	return c
}

type Client struct {
	c *client.OpenFgaClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewClient(cfg *Config) *Client {
	if cfg == nil {
		panic("OpenFGA config missing")
	}

	fgaClient, err := client.NewSdkClient(
		&client.ClientConfiguration{
			ApiScheme: cfg.ApiScheme,
			ApiHost:   cfg.ApiHost,
			StoreId:   cfg.StoreID,
			Credentials: &credentials.Credentials{
				Method: credentials.CredentialsMethodApiToken,
				Config: &credentials.Config{
					ApiToken: cfg.ApiToken,
				},
			},
			AuthorizationModelId: cfg.AuthModelID,
			Debug:                cfg.Debug,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("issues setting up OpenFGA client %s", err))
	}

	c := new(Client)

	c.c = fgaClient

	c.tracer = cfg.Tracer
	c.monitor = cfg.Monitor
	c.logger = cfg.Logger

	return c
}

func (c *Client) Check(ctx context.Context, user, relation, object string, contextualTuples ...Tuple) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.Check")
	defer span.End()

	r := client.ClientCheckRequest{
		User:     user,
		Relation: relation,
		Object:   object,
	}

	if len(contextualTuples) > 0 {
		cts := make([]client.ClientContextualTupleKey, len(contextualTuples))
		for i, ct := range contextualTuples {
			cts[i] = client.ClientContextualTupleKey{
				User:     ct.User,
				Relation: ct.Relation,
				Object:   ct.Object,
			}
		}
		r.ContextualTuples = cts
	}

	check, err := c.c.Check(ctx).Body(r).Execute()
	if err != nil {
		return false, err
	}

	return check.GetAllowed(), nil
}

func (c *Client) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListObjects")
	defer span.End()

	r, err := c.c.ListObjects(ctx).Body(
		client.ClientListObjectsRequest{
			User:     user,
			Relation: relation,
			Type:     objectType,
		},
	).Execute()
	if err != nil {
		return nil, err
	}

	return r.GetObjects(), nil
}

func (c *Client) WriteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuple")
	defer span.End()

	_, err := c.c.Write(ctx).Body(
		client.ClientWriteRequest{
			Writes: []client.ClientTupleKey{
				{
					User:     user,
					Relation: relation,
					Object:   object,
				},
			},
		},
	).Execute()

	return err
}

func (c *Client) DeleteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuple")
	defer span.End()

	_, err := c.c.Write(ctx).Body(
		client.ClientWriteRequest{
			Deletes: []client.ClientTupleKeyWithoutCondition{
				{
					User:     user,
					Relation: relation,
					Object:   object,
				},
			},
		},
	).Execute()

	return err
}

func (c *Client) DeleteTuples(ctx context.Context, tuples ...Tuple) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuples")
	defer span.End()

	deletes := make([]client.ClientTupleKeyWithoutCondition, len(tuples))
	for i, t := range tuples {
		deletes[i] = client.ClientTupleKeyWithoutCondition{
			User:     t.User,
			Relation: t.Relation,
			Object:   t.Object,
		}
	}

	_, err := c.c.Write(ctx).Body(
		client.ClientWriteRequest{Deletes: deletes},
	).Execute()

	return err
}

func (c *Client) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) (*client.ClientReadResponse, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadTuples")
	defer span.End()

	r := c.c.Read(ctx)
	if user != "" || relation != "" || object != "" {
		r = r.Body(
			client.ClientReadRequest{
				User:     &user,
				Relation: &relation,
				Object:   &object,
			},
		)
	}

	return r.Options(
		client.ClientReadOptions{ContinuationToken: &continuationToken},
	).Execute()
}

func (c *Client) ReadModel(ctx context.Context) (*fga.AuthorizationModel, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadModel")
	defer span.End()

	r, err := c.c.ReadLatestAuthorizationModel(ctx).Execute()
	if err != nil {
		return nil, err
	}

	return r.AuthorizationModel, nil
}

// CompareModel reports whether the latest model on the store matches the
// passed-in model's schema version and type definitions.
func (c *Client) CompareModel(ctx context.Context, model fga.AuthorizationModel) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CompareModel")
	defer span.End()

	readModel, err := c.ReadModel(ctx)
	if err != nil {
		return false, err
	}

	if readModel == nil {
		return false, nil
	}

	if model.SchemaVersion != readModel.SchemaVersion {
		c.logger.Errorf("schema version mismatch: %s - %s", model.SchemaVersion, readModel.SchemaVersion)
		return false, nil
	}

	expected, err := json.Marshal(normalizeTypeDefs(model.TypeDefinitions))
	if err != nil {
		return false, err
	}
	got, err := json.Marshal(normalizeTypeDefs(readModel.TypeDefinitions))
	if err != nil {
		return false, err
	}

	if !reflect.DeepEqual(expected, got) {
		c.logger.Errorf("type definitions mismatch: %s - %s", expected, got)
		return false, nil
	}

	return true, nil
}

func normalizeTypeDefs(defs []fga.TypeDefinition) map[string]fga.TypeDefinition {
	m := make(map[string]fga.TypeDefinition, len(defs))
	for _, d := range defs {
		m[d.Type] = d
	}
	return m
}

func (c *Client) CreateStore(ctx context.Context, name string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CreateStore")
	defer span.End()

	r, err := c.c.CreateStore(ctx).Body(
		client.ClientCreateStoreRequest{Name: name},
	).Execute()
	if err != nil {
		return "", err
	}

	return r.GetId(), nil
}

func (c *Client) SetStoreID(ctx context.Context, storeID string) {
	_, span := c.tracer.Start(ctx, "openfga.Client.SetStoreID")
	defer span.End()

	c.c.SetStoreId(storeID)
}

func (c *Client) WriteModel(ctx context.Context, model *client.ClientWriteAuthorizationModelRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteModel")
	defer span.End()

	r, err := c.c.WriteAuthorizationModel(ctx).Body(*model).Execute()
	if err != nil {
		return "", err
	}

	return r.GetAuthorizationModelId(), nil
}
