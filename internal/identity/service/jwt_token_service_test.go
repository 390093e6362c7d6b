package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

func newTestTokenService() TokenService {
	return NewJWTTokenService("access-secret", "refresh-secret", 15*time.Minute, 30*24*time.Hour, "identity")
}

func TestJWTTokenService_AccessToken(t *testing.T) {
	svc := newTestTokenService()
	orgID := uuid.Must(uuid.NewV7())
	identity := &domain.Identity{
		ID:             uuid.Must(uuid.NewV7()),
		Role:           domain.RoleClientAdmin,
		OrganizationID: &orgID,
	}

	t.Run("RoundTrip", func(t *testing.T) {
		tokenString, err := svc.GenerateAccessToken(identity, "alice@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		claims, err := svc.ValidateAccessToken(tokenString)
		require.NoError(t, err)

		assert.Equal(t, identity.ID.String(), claims.Subject)
		assert.Equal(t, domain.RoleClientAdmin, claims.Role)
		assert.Equal(t, &orgID, claims.OrganizationID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "identity", claims.Issuer)

		identityID, err := claims.IdentityID()
		require.NoError(t, err)
		assert.Equal(t, identity.ID, identityID)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewJWTTokenService("other-secret", "refresh-secret", 15*time.Minute, time.Hour, "identity")
		tokenString, err := other.GenerateAccessToken(identity, "alice@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := NewJWTTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour, "someone-else")
		tokenString, err := other.GenerateAccessToken(identity, "alice@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewJWTTokenService("access-secret", "refresh-secret", -time.Minute, time.Hour, "identity")
		tokenString, err := expired.GenerateAccessToken(identity, "alice@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestJWTTokenService_RefreshToken(t *testing.T) {
	svc := newTestTokenService()
	identityID := uuid.Must(uuid.NewV7())

	t.Run("RoundTrip", func(t *testing.T) {
		tokenString, err := svc.GenerateRefreshToken(identityID)
		require.NoError(t, err)

		subject, err := svc.ValidateRefreshToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, identityID, subject)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		// signed with the access secret, must not pass refresh validation
		accessToken, err := svc.GenerateAccessToken(&domain.Identity{ID: identityID, Role: domain.RoleOperator}, "op@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateRefreshToken(accessToken)
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewJWTTokenService("access-secret", "refresh-secret", time.Minute, -time.Minute, "identity")
		tokenString, err := expired.GenerateRefreshToken(identityID)
		require.NoError(t, err)

		_, err = svc.ValidateRefreshToken(tokenString)
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})
}

func TestJWTTokenService_HashRefreshToken(t *testing.T) {
	svc := newTestTokenService()

	hash := svc.HashRefreshToken("some-token")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, svc.HashRefreshToken("some-token"))
	assert.NotEqual(t, hash, svc.HashRefreshToken("other-token"))
}

func TestJWTTokenService_CompareHash(t *testing.T) {
	svc := newTestTokenService()

	hash := svc.HashRefreshToken("some-token")
	assert.True(t, svc.CompareHash(hash, svc.HashRefreshToken("some-token")))
	assert.False(t, svc.CompareHash(hash, svc.HashRefreshToken("other-token")))
	assert.False(t, svc.CompareHash(hash, ""))
}
