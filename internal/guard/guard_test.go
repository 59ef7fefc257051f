// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"errors"
	"testing"

	"github.com/canonical/elevation-service/internal/identity"
	"github.com/canonical/elevation-service/internal/types"
)

func principalRecord(id string, isAdmin bool) *types.Principal {
	return &types.Principal{
		ID:      id,
		Email:   id + "@example.com",
		Name:    "Someone",
		IsAdmin: isAdmin,
	}
}

func TestEvaluate(t *testing.T) {
	operator := &identity.Principal{ID: "system:elevation-service", ServiceAccount: true}
	owner := &identity.Principal{ID: "principal-1", Email: "principal-1@example.com"}
	stranger := &identity.Principal{ID: "principal-2", Email: "principal-2@example.com"}

	testCases := []struct {
		name        string
		old         *types.Principal
		candidate   *types.Principal
		writer      *identity.Principal
		expectedErr error
	}{
		{
			name:        "operator may elevate",
			old:         principalRecord("principal-1", false),
			candidate:   principalRecord("principal-1", true),
			writer:      operator,
			expectedErr: nil,
		},
		{
			name:        "operator may demote",
			old:         principalRecord("principal-1", true),
			candidate:   principalRecord("principal-1", false),
			writer:      operator,
			expectedErr: nil,
		},
		{
			name:        "owner may change profile fields",
			old:         principalRecord("principal-1", false),
			candidate:   principalRecord("principal-1", false),
			writer:      owner,
			expectedErr: nil,
		},
		{
			name:        "owner may not elevate itself",
			old:         principalRecord("principal-1", false),
			candidate:   principalRecord("principal-1", true),
			writer:      owner,
			expectedErr: ErrSelfElevationForbidden,
		},
		{
			name:        "owner may not demote itself",
			old:         principalRecord("principal-1", true),
			candidate:   principalRecord("principal-1", false),
			writer:      owner,
			expectedErr: ErrSelfElevationForbidden,
		},
		{
			name:        "admin owner may not toggle its own flag",
			old:         principalRecord("principal-1", true),
			candidate:   principalRecord("principal-1", true),
			writer:      owner,
			expectedErr: nil,
		},
		{
			name:        "stranger denied regardless of fields",
			old:         principalRecord("principal-1", false),
			candidate:   principalRecord("principal-1", false),
			writer:      stranger,
			expectedErr: ErrNotRecordOwner,
		},
		{
			name:        "anonymous denied",
			old:         principalRecord("principal-1", false),
			candidate:   principalRecord("principal-1", true),
			writer:      nil,
			expectedErr: ErrAnonymousWrite,
		},
		{
			name:        "missing old image fails closed",
			old:         nil,
			candidate:   principalRecord("principal-1", true),
			writer:      operator,
			expectedErr: ErrMissingImage,
		},
		{
			name:        "missing candidate image fails closed",
			old:         principalRecord("principal-1", false),
			candidate:   nil,
			writer:      operator,
			expectedErr: ErrMissingImage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Evaluate(tc.old, tc.candidate, tc.writer)

			if tc.expectedErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

// TestEvaluateUsesProvidedImages documents why superseded guard designs are
// rejected. A check written as "new value must equal the current row value"
// is unsound when the current row value is re-read inside the mutating
// statement: the re-read can observe the candidate value and the check
// degenerates to comparing the new value with itself. The hook contract
// hands both images in explicitly, so a caller-supplied stale or in-flight
// "current" value cannot weaken the decision.
func TestEvaluateUsesProvidedImages(t *testing.T) {
	owner := &identity.Principal{ID: "principal-1"}

	old := principalRecord("principal-1", false)
	candidate := principalRecord("principal-1", true)

	// The broken variant would compare candidate.IsAdmin against a re-read
	// that already sees true, and allow. The hook must compare against the
	// explicit pre-mutation image and deny.
	inFlightReRead := principalRecord("principal-1", true)
	if inFlightReRead.IsAdmin != candidate.IsAdmin {
		t.Fatal("test fixture must model the self-referential re-read")
	}

	if err := Evaluate(old, candidate, owner); !errors.Is(err, ErrSelfElevationForbidden) {
		t.Errorf("expected ErrSelfElevationForbidden, got %v", err)
	}
}

// TestEvaluateDenialIsObservable guards against the silent-failure variant:
// a denial must be a distinguishable error, not a nil that callers could
// mistake for success.
func TestEvaluateDenialIsObservable(t *testing.T) {
	owner := &identity.Principal{ID: "principal-1"}

	err := Evaluate(principalRecord("principal-1", false), principalRecord("principal-1", true), owner)
	if err == nil {
		t.Fatal("denial must surface as an error")
	}
	if err.Error() == "" {
		t.Fatal("denial must carry a message")
	}
}
