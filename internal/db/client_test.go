// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/canonical/elevation-service/internal/logging"
)

var errConnRefused = errors.New("connection refused")

// failingConnector yields a *sql.DB whose every connection attempt fails,
// so BeginTx can never succeed.
type failingConnector struct{}

func (failingConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errConnRefused
}

func (failingConnector) Driver() driver.Driver {
	return nil
}

func setupFailingTxClient() (*DBClient, *lazyTx) {
	d := new(DBClient)
	d.logger = logging.NewNoopLogger()

	lt := &lazyTx{
		db:     sql.OpenDB(failingConnector{}),
		logger: d.logger,
	}

	return d, lt
}

func TestStatementSurfacesTransactionFailure(t *testing.T) {
	d, lt := setupFailingTxClient()
	ctx := contextWithLazyTx(context.Background(), lt)

	var one int
	err := d.Statement(ctx).
		Select("1").
		From("principals").
		QueryRowContext(ctx).
		Scan(&one)

	if err == nil {
		t.Fatal("expected the statement to fail when the transaction cannot start")
	}
	if !strings.Contains(err.Error(), "failed to start transaction") {
		t.Fatalf("expected a transaction error, got %v", err)
	}
	if !errors.Is(err, errConnRefused) {
		t.Fatalf("expected the begin error to be wrapped, got %v", err)
	}
}

func TestStatementExecSurfacesTransactionFailure(t *testing.T) {
	d, lt := setupFailingTxClient()
	ctx := contextWithLazyTx(context.Background(), lt)

	_, err := d.Statement(ctx).
		Update("principals").
		Set("name", "x").
		ExecContext(ctx)

	if err == nil {
		t.Fatal("expected the exec to fail when the transaction cannot start")
	}
	if !errors.Is(err, errConnRefused) {
		t.Fatalf("expected the begin error to be wrapped, got %v", err)
	}
}

func TestExecSurfacesTransactionFailure(t *testing.T) {
	d, lt := setupFailingTxClient()
	ctx := contextWithLazyTx(context.Background(), lt)

	err := d.Exec(ctx, "SET LOCAL elevation.trusted_write = 'on'")

	if !errors.Is(err, errConnRefused) {
		t.Fatalf("expected the begin error, got %v", err)
	}
}
