package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/identity/internal/identity/domain"
)

// The compare-and-swap on refresh_token_hash is what makes a refresh token
// single use. These tests pin the exact conditional UPDATE shape with sqlmock,
// including the zero-rows outcome a racing rotation produces.

func TestPostgreSQLIdentityRepository_UpdateRefreshTokenHash_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLIdentityRepository(db)
	id := uuid.Must(uuid.NewV7())

	t.Run("WinnerGetsOneRow", func(t *testing.T) {
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("new-hash", id, "expected-hash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateRefreshTokenHash(context.Background(), id, "expected-hash", "new-hash")
		assert.NoError(t, err)
	})

	t.Run("LoserGetsZeroRows", func(t *testing.T) {
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("new-hash", id, "expected-hash").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRefreshTokenHash(context.Background(), id, "expected-hash", "new-hash")
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLIdentityRepository_UpdateRefreshTokenHash_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLIdentityRepository(db)
	id := uuid.Must(uuid.NewV7())
	idBytes, err := id.MarshalBinary()
	require.NoError(t, err)

	t.Run("WinnerGetsOneRow", func(t *testing.T) {
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("new-hash", idBytes, "expected-hash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateRefreshTokenHash(context.Background(), id, "expected-hash", "new-hash")
		assert.NoError(t, err)
	})

	t.Run("LoserGetsZeroRows", func(t *testing.T) {
		mock.ExpectExec(`UPDATE identities`).
			WithArgs("new-hash", idBytes, "expected-hash").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRefreshTokenHash(context.Background(), id, "expected-hash", "new-hash")
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
