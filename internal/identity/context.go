// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import "context"

// Principal is the caller identity attached to a request context.
// ServiceAccount marks a trusted operator/service execution context; it is
// derived from credentials ordinary login sessions cannot obtain and must
// never be populated from request data.
type Principal struct {
	ID             string
	Email          string
	ServiceAccount bool
}

type contextKey struct{}

var principalContextKey = contextKey{}

// WithPrincipal returns a new context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the caller principal.
// A nil principal means the request is anonymous.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
