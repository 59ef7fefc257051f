// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/elevation-service/internal/db"
	"github.com/canonical/elevation-service/internal/guard"
	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/logging"
	"github.com/canonical/elevation-service/internal/monitoring"
	"github.com/canonical/elevation-service/internal/tracing"
	"github.com/canonical/elevation-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

const (
	tokenColumns     = "id, value, email, issued_by, created_at, expires_at, consumed_at, consumed_by"
	principalColumns = "id, email, name, is_admin, created_at, updated_at"
)

type Storage struct {
	db    db.DBClientInterface
	guard guard.Hook

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, g guard.Hook, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c
	s.guard = g

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func (s *Storage) CreateToken(ctx context.Context, email, issuedBy, value string, expiresAt time.Time) (*types.InvitationToken, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateToken")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID: %w", err)
	}

	var t types.InvitationToken
	err = s.db.Statement(ctx).
		Insert("invitation_tokens").
		Columns("id", "value", "email", "issued_by", "expires_at").
		Values(id.String(), value, email, issuedBy, expiresAt).
		Suffix("RETURNING " + tokenColumns).
		QueryRowContext(ctx).
		Scan(&t.ID, &t.Value, &t.Email, &t.IssuedBy, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.ConsumedBy)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	return &t, nil
}

func (s *Storage) GetTokenByValue(ctx context.Context, value string) (*types.InvitationToken, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTokenByValue")
	defer span.End()

	var t types.InvitationToken
	err := s.db.Statement(ctx).
		Select(tokenColumns).
		From("invitation_tokens").
		Where(sq.Eq{"value": value}).
		QueryRowContext(ctx).
		Scan(&t.ID, &t.Value, &t.Email, &t.IssuedBy, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.ConsumedBy)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return &t, nil
}

// MarkTokenConsumed burns the token with a single conditional UPDATE. The
// consumed_at IS NULL predicate makes the write the linearization point:
// exactly one concurrent caller observes an affected row. A zero-row result
// triggers a follow-up read purely to classify the failure.
func (s *Storage) MarkTokenConsumed(ctx context.Context, value, consumedBy string) (*types.InvitationToken, error) {
	ctx, span := s.tracer.Start(ctx, "storage.MarkTokenConsumed")
	defer span.End()

	var t types.InvitationToken
	err := s.db.Statement(ctx).
		Update("invitation_tokens").
		Set("consumed_at", sq.Expr("now()")).
		Set("consumed_by", consumedBy).
		Where(sq.Eq{"value": value}).
		Where("consumed_at IS NULL").
		Suffix("RETURNING " + tokenColumns).
		QueryRowContext(ctx).
		Scan(&t.ID, &t.Value, &t.Email, &t.IssuedBy, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.ConsumedBy)

	if err == nil {
		return &t, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	// Either the token never existed or somebody else burned it first.
	if _, err := s.GetTokenByValue(ctx, value); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to classify consume failure: %w", err)
	}

	return nil, ErrAlreadyConsumed
}

func (s *Storage) ListTokens(ctx context.Context) ([]types.InvitationToken, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTokens")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(tokenColumns).
		From("invitation_tokens").
		OrderBy("created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []types.InvitationToken
	for rows.Next() {
		var t types.InvitationToken
		if err := rows.Scan(&t.ID, &t.Value, &t.Email, &t.IssuedBy, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.ConsumedBy); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token rows: %w", err)
	}

	return tokens, nil
}

func (s *Storage) DeleteToken(ctx context.Context, value string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteToken")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("invitation_tokens").
		Where(sq.Eq{"value": value}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}

func (s *Storage) CreatePrincipal(ctx context.Context, id, email, name string) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreatePrincipal")
	defer span.End()

	var p types.Principal
	err := s.db.Statement(ctx).
		Insert("principals").
		Columns("id", "email", "name").
		Values(id, email, name).
		Suffix("RETURNING " + principalColumns).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert principal: %w", err)
	}

	return &p, nil
}

func (s *Storage) GetPrincipalByID(ctx context.Context, id string) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetPrincipalByID")
	defer span.End()

	var p types.Principal
	err := s.db.Statement(ctx).
		Select(principalColumns).
		From("principals").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}

func (s *Storage) GetPrincipalByEmail(ctx context.Context, email string) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetPrincipalByEmail")
	defer span.End()

	var p types.Principal
	err := s.db.Statement(ctx).
		Select(principalColumns).
		From("principals").
		Where(sq.Eq{"email": email}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}

// UpdatePrincipal applies the patch inside a transaction. The pre-mutation
// row image is read under FOR UPDATE so the guard always judges the image
// the write will replace, not a stale or re-read one.
func (s *Storage) UpdatePrincipal(ctx context.Context, id string, patch PrincipalPatch, writer *identity.Principal) (*types.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdatePrincipal")
	defer span.End()

	var updated types.Principal
	err := s.db.WithTx(ctx, func(txCtx context.Context) error {
		var old types.Principal
		err := s.db.Statement(txCtx).
			Select(principalColumns).
			From("principals").
			Where(sq.Eq{"id": id}).
			Suffix("FOR UPDATE").
			QueryRowContext(txCtx).
			Scan(&old.ID, &old.Email, &old.Name, &old.IsAdmin, &old.CreatedAt, &old.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get principal: %w", err)
		}

		candidate := old
		if patch.Name != nil {
			candidate.Name = *patch.Name
		}
		if patch.IsAdmin != nil {
			candidate.IsAdmin = *patch.IsAdmin
		}

		if err := s.guard(&old, &candidate, writer); err != nil {
			return err
		}

		if candidate.IsAdmin != old.IsAdmin {
			// The database trigger rejects privilege writes unless the
			// session is marked trusted for the current transaction.
			if err := s.db.Exec(txCtx, "SET LOCAL elevation.trusted_write = 'on'"); err != nil {
				return fmt.Errorf("failed to mark transaction trusted: %w", err)
			}
		}

		err = s.db.Statement(txCtx).
			Update("principals").
			Set("name", candidate.Name).
			Set("is_admin", candidate.IsAdmin).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + principalColumns).
			QueryRowContext(txCtx).
			Scan(&updated.ID, &updated.Email, &updated.Name, &updated.IsAdmin, &updated.CreatedAt, &updated.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update principal: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
