// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package elevation

import "errors"

var (
	// ErrGrantAfterConsumeFailed means the token was irrevocably consumed
	// but the admin grant did not land. Not retryable, the consumed token
	// cannot be consumed again; an operator must re-grant or issue a fresh
	// token.
	ErrGrantAfterConsumeFailed = errors.New("admin grant failed after token consumption")

	ErrPrincipalNotFound = errors.New("principal not found")
)
