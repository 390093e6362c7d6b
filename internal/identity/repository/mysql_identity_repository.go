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

// MySQLIdentityRepository handles identity persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLIdentityRepository struct {
	db *sql.DB
}

// NewMySQLIdentityRepository creates a new MySQL identity repository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}

// Create inserts a new identity. Returns ErrIdentityAlreadyExists when the
// email blind index collides with an existing row.
func (m *MySQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO identities (id, name_encrypted, email_encrypted, email_blind_index, password_hash,
				role, organization_id, mfa_method, totp_secret_encrypted, totp_enabled, refresh_token_hash,
				is_verified, last_login_at, created_by, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	id, err := identity.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	organizationID, err := marshalNullableUUID(identity.OrganizationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	createdBy, err := marshalNullableUUID(identity.CreatedBy)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal created by")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		identity.NameEncrypted.Encode(),
		identity.EmailEncrypted.Encode(),
		identity.EmailBlindIndex,
		identity.PasswordHash,
		identity.Role,
		organizationID,
		identity.MFAMethod,
		identity.TOTPSecretEncrypted.Encode(),
		identity.TOTPEnabled,
		identity.RefreshTokenHash,
		identity.IsVerified,
		identity.LastLoginAt,
		createdBy,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrIdentityAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (m *MySQLIdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal identity id")
	}

	identity, err := scanMySQLIdentity(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity by id")
	}
	return identity, nil
}

// GetByBlindIndex retrieves an identity by the keyed digest of its email.
func (m *MySQLIdentityRepository) GetByBlindIndex(ctx context.Context, blindIndex string) (*domain.Identity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + identityColumns + ` FROM identities WHERE email_blind_index = ?`

	identity, err := scanMySQLIdentity(querier.QueryRowContext(ctx, query, blindIndex))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity by blind index")
	}
	return identity, nil
}

// Update modifies an existing identity.
func (m *MySQLIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE identities
			  SET name_encrypted = ?,
				  email_encrypted = ?,
				  email_blind_index = ?,
				  password_hash = ?,
				  role = ?,
				  organization_id = ?,
				  mfa_method = ?,
				  totp_secret_encrypted = ?,
				  totp_enabled = ?,
				  refresh_token_hash = ?,
				  is_verified = ?,
				  last_login_at = ?,
				  updated_at = NOW()
			  WHERE id = ?`

	id, err := identity.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	organizationID, err := marshalNullableUUID(identity.OrganizationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		identity.NameEncrypted.Encode(),
		identity.EmailEncrypted.Encode(),
		identity.EmailBlindIndex,
		identity.PasswordHash,
		identity.Role,
		organizationID,
		identity.MFAMethod,
		identity.TOTPSecretEncrypted.Encode(),
		identity.TOTPEnabled,
		identity.RefreshTokenHash,
		identity.IsVerified,
		identity.LastLoginAt,
		id,
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
func (m *MySQLIdentityRepository) UpdateTOTP(ctx context.Context, id uuid.UUID, secret cryptoDomain.EncryptedValue, enabled bool) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE identities
			  SET totp_secret_encrypted = ?, totp_enabled = ?, updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	result, err := querier.ExecContext(ctx, query, secret.Encode(), enabled, idBytes)
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
// current digest still matches expectedHash. Zero rows affected means a
// concurrent rotation or a revoke won, reported as ErrInvalidSession.
func (m *MySQLIdentityRepository) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE identities
			  SET refresh_token_hash = ?, updated_at = NOW()
			  WHERE id = ? AND refresh_token_hash = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	result, err := querier.ExecContext(ctx, query, newHash, idBytes, expectedHash)
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
func (m *MySQLIdentityRepository) ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	_, err = querier.ExecContext(ctx, `UPDATE identities SET refresh_token_hash = NULL, updated_at = NOW() WHERE id = ?`, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear refresh token hash")
	}
	return nil
}

// Delete removes an identity by ID.
func (m *MySQLIdentityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, idBytes)
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

// scanMySQLIdentity maps a row onto the domain entity, unmarshaling BINARY(16)
// UUID columns and decoding the encrypted columns.
func scanMySQLIdentity(row rowScanner) (*domain.Identity, error) {
	var identity domain.Identity
	var idBytes, organizationIDBytes, createdByBytes []byte
	var nameEncrypted, emailEncrypted, totpSecretEncrypted string

	err := row.Scan(
		&idBytes,
		&nameEncrypted,
		&emailEncrypted,
		&identity.EmailBlindIndex,
		&identity.PasswordHash,
		&identity.Role,
		&organizationIDBytes,
		&identity.MFAMethod,
		&totpSecretEncrypted,
		&identity.TOTPEnabled,
		&identity.RefreshTokenHash,
		&identity.IsVerified,
		&identity.LastLoginAt,
		&createdByBytes,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := identity.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal identity id")
	}
	if identity.OrganizationID, err = unmarshalNullableUUID(organizationIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}
	if identity.CreatedBy, err = unmarshalNullableUUID(createdByBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal created by")
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

// marshalNullableUUID converts an optional UUID to its BINARY(16) form,
// passing nil through for NULL columns.
func marshalNullableUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// unmarshalNullableUUID converts a nullable BINARY(16) column back to an
// optional UUID.
func unmarshalNullableUUID(b []byte) (*uuid.UUID, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &id, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
