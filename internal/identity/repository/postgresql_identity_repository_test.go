package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/testutil"
)

func newTestIdentity(blindIndex string) *domain.Identity {
	return &domain.Identity{
		ID: uuid.Must(uuid.NewV7()),
		NameEncrypted: cryptoDomain.EncryptedValue{
			Nonce:      []byte("012345678901"),
			Ciphertext: []byte("name-ciphertext"),
		},
		EmailEncrypted: cryptoDomain.EncryptedValue{
			Nonce:      []byte("012345678901"),
			Ciphertext: []byte("email-ciphertext"),
		},
		EmailBlindIndex: blindIndex,
		PasswordHash:    "argon2id-hash",
		Role:            domain.RoleOperator,
		MFAMethod:       domain.MFAMethodOTP,
	}
}

func TestPostgreSQLIdentityRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-1")
	require.NoError(t, repo.Create(ctx, identity))

	retrieved, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)

	assert.Equal(t, identity.ID, retrieved.ID)
	assert.Equal(t, identity.NameEncrypted, retrieved.NameEncrypted)
	assert.Equal(t, identity.EmailEncrypted, retrieved.EmailEncrypted)
	assert.Equal(t, identity.EmailBlindIndex, retrieved.EmailBlindIndex)
	assert.Equal(t, identity.PasswordHash, retrieved.PasswordHash)
	assert.Equal(t, domain.RoleOperator, retrieved.Role)
	assert.Equal(t, domain.MFAMethodOTP, retrieved.MFAMethod)
	assert.Nil(t, retrieved.OrganizationID)
	assert.Nil(t, retrieved.RefreshTokenHash)
	assert.Nil(t, retrieved.LastLoginAt)
	assert.False(t, retrieved.TOTPEnabled)
	assert.False(t, retrieved.IsVerified)
}

func TestPostgreSQLIdentityRepository_Create_DuplicateBlindIndex(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestIdentity("blind-index-dup")))

	err := repo.Create(ctx, newTestIdentity("blind-index-dup"))
	assert.ErrorIs(t, err, domain.ErrIdentityAlreadyExists)
}

func TestPostgreSQLIdentityRepository_GetByBlindIndex(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-lookup")
	require.NoError(t, repo.Create(ctx, identity))

	retrieved, err := repo.GetByBlindIndex(ctx, "blind-index-lookup")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, retrieved.ID)

	_, err = repo.GetByBlindIndex(ctx, "unknown-blind-index")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestPostgreSQLIdentityRepository_Update(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-update")
	require.NoError(t, repo.Create(ctx, identity))

	now := time.Now().UTC().Truncate(time.Second)
	refreshHash := "refresh-hash-1"
	identity.TOTPEnabled = true
	identity.TOTPSecretEncrypted = cryptoDomain.EncryptedValue{
		Nonce:      []byte("012345678901"),
		Ciphertext: []byte("totp-ciphertext"),
	}
	identity.RefreshTokenHash = &refreshHash
	identity.IsVerified = true
	identity.LastLoginAt = &now

	require.NoError(t, repo.Update(ctx, identity))

	retrieved, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.TOTPEnabled)
	assert.Equal(t, identity.TOTPSecretEncrypted, retrieved.TOTPSecretEncrypted)
	require.NotNil(t, retrieved.RefreshTokenHash)
	assert.Equal(t, refreshHash, *retrieved.RefreshTokenHash)
	assert.True(t, retrieved.IsVerified)
	require.NotNil(t, retrieved.LastLoginAt)
	assert.WithinDuration(t, now, *retrieved.LastLoginAt, time.Second)
}

func TestPostgreSQLIdentityRepository_Update_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)

	err := repo.Update(context.Background(), newTestIdentity("blind-index-missing"))
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestPostgreSQLIdentityRepository_UpdateTOTP(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-totp")
	currentHash := "session-hash"
	identity.RefreshTokenHash = &currentHash
	require.NoError(t, repo.Create(ctx, identity))

	secret := cryptoDomain.EncryptedValue{
		Nonce:      []byte("012345678901"),
		Ciphertext: []byte("totp-secret-ciphertext"),
	}

	t.Run("WritesOnlyTOTPColumns", func(t *testing.T) {
		// rotate the session between the read and the totp write
		require.NoError(t, repo.UpdateRefreshTokenHash(ctx, identity.ID, "session-hash", "rotated-hash"))

		require.NoError(t, repo.UpdateTOTP(ctx, identity.ID, secret, true))

		retrieved, err := repo.GetByID(ctx, identity.ID)
		require.NoError(t, err)
		assert.Equal(t, secret, retrieved.TOTPSecretEncrypted)
		assert.True(t, retrieved.TOTPEnabled)
		// the concurrent rotation survives the totp write
		require.NotNil(t, retrieved.RefreshTokenHash)
		assert.Equal(t, "rotated-hash", *retrieved.RefreshTokenHash)
	})

	t.Run("UnknownIdentity", func(t *testing.T) {
		err := repo.UpdateTOTP(ctx, uuid.Must(uuid.NewV7()), secret, false)
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	})
}

func TestPostgreSQLIdentityRepository_UpdateRefreshTokenHash(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-rotate")
	currentHash := "current-hash"
	identity.RefreshTokenHash = &currentHash
	require.NoError(t, repo.Create(ctx, identity))

	t.Run("MatchingHashRotates", func(t *testing.T) {
		require.NoError(t, repo.UpdateRefreshTokenHash(ctx, identity.ID, "current-hash", "next-hash"))

		retrieved, err := repo.GetByID(ctx, identity.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.RefreshTokenHash)
		assert.Equal(t, "next-hash", *retrieved.RefreshTokenHash)
	})

	t.Run("StaleHashRejected", func(t *testing.T) {
		// the previous rotation consumed "current-hash"
		err := repo.UpdateRefreshTokenHash(ctx, identity.ID, "current-hash", "another-hash")
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	t.Run("UnknownIdentity", func(t *testing.T) {
		err := repo.UpdateRefreshTokenHash(ctx, uuid.Must(uuid.NewV7()), "next-hash", "another-hash")
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})
}

func TestPostgreSQLIdentityRepository_ClearRefreshTokenHash(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-clear")
	currentHash := "current-hash"
	identity.RefreshTokenHash = &currentHash
	require.NoError(t, repo.Create(ctx, identity))

	require.NoError(t, repo.ClearRefreshTokenHash(ctx, identity.ID))

	retrieved, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.RefreshTokenHash)

	// clearing twice is a no-op
	assert.NoError(t, repo.ClearRefreshTokenHash(ctx, identity.ID))
}

func TestPostgreSQLIdentityRepository_Delete(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLIdentityRepository(db)
	ctx := context.Background()

	identity := newTestIdentity("blind-index-delete")
	require.NoError(t, repo.Create(ctx, identity))

	require.NoError(t, repo.Delete(ctx, identity.ID))

	_, err := repo.GetByID(ctx, identity.ID)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)

	err = repo.Delete(ctx, identity.ID)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}
