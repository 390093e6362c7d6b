// Package repository provides data persistence implementations for identity entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
)

const identityColumns = `id, name_encrypted, email_encrypted, email_blind_index, password_hash, role,
	organization_id, mfa_method, totp_secret_encrypted, totp_enabled, refresh_token_hash,
	is_verified, last_login_at, created_by, created_at, updated_at`

// PostgreSQLIdentityRepository handles identity persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQL identity repository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}

// Create inserts a new identity. Returns ErrIdentityAlreadyExists when the
// email blind index collides with an existing row.
func (r *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO identities (id, name_encrypted, email_encrypted, email_blind_index, password_hash,
				role, organization_id, mfa_method, totp_secret_encrypted, totp_enabled, refresh_token_hash,
				is_verified, last_login_at, created_by, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		identity.ID,
		identity.NameEncrypted.Encode(),
		identity.EmailEncrypted.Encode(),
		identity.EmailBlindIndex,
		identity.PasswordHash,
		identity.Role,
		identity.OrganizationID,
		identity.MFAMethod,
		identity.TOTPSecretEncrypted.Encode(),
		identity.TOTPEnabled,
		identity.RefreshTokenHash,
		identity.IsVerified,
		identity.LastLoginAt,
		identity.CreatedBy,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrIdentityAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *PostgreSQLIdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

	identity, err := scanIdentity(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity by id")
	}
	return identity, nil
}

// GetByBlindIndex retrieves an identity by the keyed digest of its email.
// The caller computes the digest; no plaintext email reaches the query.
func (r *PostgreSQLIdentityRepository) GetByBlindIndex(ctx context.Context, blindIndex string) (*domain.Identity, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + identityColumns + ` FROM identities WHERE email_blind_index = $1`

	identity, err := scanIdentity(querier.QueryRowContext(ctx, query, blindIndex))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity by blind index")
	}
	return identity, nil
}

// Update modifies an existing identity.
func (r *PostgreSQLIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities
			  SET name_encrypted = $1,
				  email_encrypted = $2,
				  email_blind_index = $3,
				  password_hash = $4,
				  role = $5,
				  organization_id = $6,
				  mfa_method = $7,
				  totp_secret_encrypted = $8,
				  totp_enabled = $9,
				  refresh_token_hash = $10,
				  is_verified = $11,
				  last_login_at = $12,
				  updated_at = NOW()
			  WHERE id = $13`

	result, err := querier.ExecContext(
		ctx,
		query,
		identity.NameEncrypted.Encode(),
		identity.EmailEncrypted.Encode(),
		identity.EmailBlindIndex,
		identity.PasswordHash,
		identity.Role,
		identity.OrganizationID,
		identity.MFAMethod,
		identity.TOTPSecretEncrypted.Encode(),
		identity.TOTPEnabled,
		identity.RefreshTokenHash,
		identity.IsVerified,
		identity.LastLoginAt,
		identity.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// UpdateTOTP writes only the TOTP columns. Enrollment and activation run
// concurrently with session traffic, so the write must not carry a possibly
// stale refresh_token_hash back into the row.
func (r *PostgreSQLIdentityRepository) UpdateTOTP(ctx context.Context, id uuid.UUID, secret cryptoDomain.EncryptedValue, enabled bool) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities
			  SET totp_secret_encrypted = $1, totp_enabled = $2, updated_at = NOW()
			  WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, secret.Encode(), enabled, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update totp columns")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// UpdateRefreshTokenHash swaps the stored refresh token digest only when the
// current digest still matches expectedHash. A concurrent rotation that got
// there first leaves zero rows affected, reported as ErrInvalidSession, which
// keeps each refresh token single use.
func (r *PostgreSQLIdentityRepository) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities
			  SET refresh_token_hash = $1, updated_at = NOW()
			  WHERE id = $2 AND refresh_token_hash = $3`

	result, err := querier.ExecContext(ctx, query, newHash, id, expectedHash)
	if err != nil {
		return apperrors.Wrap(err, "failed to rotate refresh token hash")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrInvalidSession
	}
	return nil
}

// ClearRefreshTokenHash removes the stored refresh token digest, ending the
// session. Clearing an already-clear session is a no-op.
func (r *PostgreSQLIdentityRepository) ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities SET refresh_token_hash = NULL, updated_at = NOW() WHERE id = $1`

	_, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear refresh token hash")
	}
	return nil
}

// Delete removes an identity by ID.
func (r *PostgreSQLIdentityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete identity")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanIdentity.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanIdentity maps a row onto the domain entity, decoding the encrypted
// columns from their storage representation.
func scanIdentity(row rowScanner) (*domain.Identity, error) {
	var identity domain.Identity
	var nameEncrypted, emailEncrypted, totpSecretEncrypted string

	err := row.Scan(
		&identity.ID,
		&nameEncrypted,
		&emailEncrypted,
		&identity.EmailBlindIndex,
		&identity.PasswordHash,
		&identity.Role,
		&identity.OrganizationID,
		&identity.MFAMethod,
		&totpSecretEncrypted,
		&identity.TOTPEnabled,
		&identity.RefreshTokenHash,
		&identity.IsVerified,
		&identity.LastLoginAt,
		&identity.CreatedBy,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if identity.NameEncrypted, err = cryptoDomain.DecodeEncryptedValue(nameEncrypted); err != nil {
		return nil, err
	}
	if identity.EmailEncrypted, err = cryptoDomain.DecodeEncryptedValue(emailEncrypted); err != nil {
		return nil, err
	}
	if identity.TOTPSecretEncrypted, err = cryptoDomain.DecodeEncryptedValue(totpSecretEncrypted); err != nil {
		return nil, err
	}
	return &identity, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
