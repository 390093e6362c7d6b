package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

// jwtTokenService implements TokenService using HS256-signed JWTs.
type jwtTokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewJWTTokenService creates a TokenService. Access and refresh tokens are
// signed with separate secrets; a leaked access secret does not allow forging
// refresh tokens.
func NewJWTTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) TokenService {
	return &jwtTokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}
}

// GenerateAccessToken issues a signed access token carrying the identity's
// role, organization, and decrypted email.
func (s *jwtTokenService) GenerateAccessToken(identity *domain.Identity, email string) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		Role:           identity.Role,
		OrganizationID: identity.OrganizationID,
		Email:          email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign access token")
	}
	return tokenString, nil
}

// ValidateAccessToken verifies signature, issuer, and expiry.
func (s *jwtTokenService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.accessSecret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, err.Error())
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid access token")
	}
	return claims, nil
}

// GenerateRefreshToken issues a signed refresh token carrying only the
// identity as subject.
func (s *jwtTokenService) GenerateRefreshToken(identityID uuid.UUID) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   identityID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign refresh token")
	}
	return tokenString, nil
}

// ValidateRefreshToken verifies signature and expiry and returns the subject.
func (s *jwtTokenService) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.refreshSecret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidSession
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, domain.ErrInvalidSession
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidSession
	}
	return identityID, nil
}

// HashRefreshToken hashes a plain refresh token using SHA-256.
// Returns the hash as a hexadecimal string.
func (s *jwtTokenService) HashRefreshToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// CompareHash compares two digests in constant time.
func (s *jwtTokenService) CompareHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *jwtTokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}
