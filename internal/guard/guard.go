// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package guard enforces the privilege-field invariant: a principal's
// is_admin flag may only change through a trusted operator/service write
// path, never through the principal's own request context.
package guard

import (
	"errors"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/types"
)

var (
	// ErrSelfElevationForbidden is returned when a principal attempts to
	// change its own privilege flag.
	ErrSelfElevationForbidden = errors.New("self elevation forbidden")
	// ErrAnonymousWrite is returned for writes without an identity.
	ErrAnonymousWrite = errors.New("anonymous writes to principal records are not authorized")
	// ErrNotRecordOwner is returned when an ordinary principal targets a
	// record it does not own.
	ErrNotRecordOwner = errors.New("principal may not modify another principal's record")
	// ErrMissingImage is returned when either row image is absent; the
	// guard fails closed rather than guessing.
	ErrMissingImage = errors.New("privilege guard requires both row images")
)

// Hook is the before-write hook signature the storage layer invokes with
// the pre-mutation row image, the candidate post-mutation image and the
// writer's identity context, inside the same transaction that would commit
// the write.
type Hook func(old, candidate *types.Principal, writer *identity.Principal) error

// Evaluate implements the privilege-field decision table.
//
// Both images are passed in by the caller; the guard never re-derives the
// "old" value with a query of its own. A same-transaction re-read can
// observe the in-flight candidate value and would compare the new value
// against itself, which is exactly the defect this hook exists to close.
func Evaluate(old, candidate *types.Principal, writer *identity.Principal) error {
	if old == nil || candidate == nil {
		return ErrMissingImage
	}

	switch {
	case writer == nil:
		return ErrAnonymousWrite
	case writer.ServiceAccount:
		return nil
	case writer.ID != old.ID:
		return ErrNotRecordOwner
	case candidate.IsAdmin != old.IsAdmin:
		return ErrSelfElevationForbidden
	}

	return nil
}
