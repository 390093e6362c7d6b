// Package http provides HTTP handlers and middleware for authentication
// and session management.
package http

import (
	"context"

	"github.com/allisson/identity/internal/identity/service"
)

// claimsKey is a context key type for storing validated access token claims.
type claimsKey struct{}

// WithClaims stores validated access token claims in the context.
// Called by the authentication middleware after token validation.
func WithClaims(ctx context.Context, claims *service.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves validated access token claims from the context.
// Returns (claims, true) if present, or (nil, false) if the request did not
// pass through the authentication middleware.
func GetClaims(ctx context.Context) (*service.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*service.AccessClaims)
	return claims, ok
}
