// Package service provides identity-related services for session token
// generation and validation.
package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/allisson/identity/internal/identity/domain"
)

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Role           domain.Role `json:"role"`
	OrganizationID *uuid.UUID  `json:"organization_id,omitempty"`
	Email          string      `json:"email"`
	jwt.RegisteredClaims
}

// IdentityID returns the subject as a parsed UUID.
func (c *AccessClaims) IdentityID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenService issues and validates the session token pair: a short-lived
// access token and a longer-lived refresh token, signed with independent
// secrets so one cannot stand in for the other.
type TokenService interface {
	// GenerateAccessToken issues a signed access token for the identity.
	// The email claim is the decrypted address, supplied by the caller.
	GenerateAccessToken(identity *domain.Identity, email string) (string, error)

	// ValidateAccessToken verifies signature, issuer, and expiry.
	ValidateAccessToken(tokenString string) (*AccessClaims, error)

	// GenerateRefreshToken issues a signed refresh token for the identity.
	GenerateRefreshToken(identityID uuid.UUID) (string, error)

	// ValidateRefreshToken verifies signature and expiry and returns the
	// identity the token was issued to.
	ValidateRefreshToken(tokenString string) (uuid.UUID, error)

	// HashRefreshToken returns the hex SHA-256 digest of a refresh token.
	// Only the digest is persisted.
	HashRefreshToken(plainToken string) string

	// CompareHash performs a constant-time comparison of two token digests.
	CompareHash(a, b string) bool

	// AccessTokenTTL returns the configured access token lifetime.
	AccessTokenTTL() time.Duration
}
