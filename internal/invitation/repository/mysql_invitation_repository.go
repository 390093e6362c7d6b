package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/invitation/domain"
)

// MySQLInvitationRepository handles invitation persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLInvitationRepository struct {
	db *sql.DB
}

// NewMySQLInvitationRepository creates a new MySQL invitation repository.
func NewMySQLInvitationRepository(db *sql.DB) *MySQLInvitationRepository {
	return &MySQLInvitationRepository{db: db}
}

// Create inserts a new invitation.
func (m *MySQLInvitationRepository) Create(ctx context.Context, invitation *domain.Invitation) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO invitations (id, email_encrypted, email_blind_index, code, role, mfa_method,
				organization_id, status, created_by, expires_at, accepted_at, accepted_identity_id,
				created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	id, err := invitation.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal invitation id")
	}

	organizationID, err := marshalOptionalUUID(invitation.OrganizationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	createdBy, err := invitation.CreatedBy.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal created by")
	}

	acceptedIdentityID, err := marshalOptionalUUID(invitation.AcceptedIdentityID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal accepted identity id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		invitation.EmailEncrypted.Encode(),
		invitation.EmailBlindIndex,
		invitation.Code,
		invitation.Role,
		invitation.MFAMethod,
		organizationID,
		invitation.Status,
		createdBy,
		invitation.ExpiresAt,
		invitation.AcceptedAt,
		acceptedIdentityID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create invitation")
	}
	return nil
}

// GetByID retrieves an invitation by ID.
func (m *MySQLInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal invitation id")
	}

	invitation, err := scanMySQLInvitation(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get invitation by id")
	}
	return invitation, nil
}

// GetPendingByBlindIndex retrieves the pending invitation for an email, if
// one exists.
func (m *MySQLInvitationRepository) GetPendingByBlindIndex(ctx context.Context, blindIndex string) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + invitationColumns + ` FROM invitations
			  WHERE email_blind_index = ? AND status = ?
			  ORDER BY created_at DESC LIMIT 1`

	invitation, err := scanMySQLInvitation(querier.QueryRowContext(ctx, query, blindIndex, domain.StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get pending invitation by blind index")
	}
	return invitation, nil
}

// Update modifies an existing invitation.
func (m *MySQLInvitationRepository) Update(ctx context.Context, invitation *domain.Invitation) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE invitations
			  SET status = ?,
				  accepted_at = ?,
				  accepted_identity_id = ?,
				  expires_at = ?,
				  updated_at = NOW()
			  WHERE id = ?`

	id, err := invitation.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal invitation id")
	}

	acceptedIdentityID, err := marshalOptionalUUID(invitation.AcceptedIdentityID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal accepted identity id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		invitation.Status,
		invitation.AcceptedAt,
		acceptedIdentityID,
		invitation.ExpiresAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update invitation")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

// UpdateStatusIfPending transitions the invitation out of the pending state
// only if it is still pending. Zero rows affected is reported as
// ErrInvitationAlreadyUsed.
func (m *MySQLInvitationRepository) UpdateStatusIfPending(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	acceptedIdentityID *uuid.UUID,
	acceptedAt *time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE invitations
			  SET status = ?, accepted_identity_id = ?, accepted_at = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal invitation id")
	}

	acceptedIdentityIDBytes, err := marshalOptionalUUID(acceptedIdentityID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal accepted identity id")
	}

	result, err := querier.ExecContext(ctx, query, status, acceptedIdentityIDBytes, acceptedAt, idBytes, domain.StatusPending)
	if err != nil {
		return apperrors.Wrap(err, "failed to update invitation status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrInvitationAlreadyUsed
	}
	return nil
}

// ListByOrganization retrieves invitations for an organization, newest first.
// A nil organizationID lists platform-level invitations.
func (m *MySQLInvitationRepository) ListByOrganization(
	ctx context.Context,
	organizationID *uuid.UUID,
	limit, offset int,
) ([]*domain.Invitation, error) {
	querier := database.GetTx(ctx, m.db)

	var rows *sql.Rows
	var err error

	if organizationID == nil {
		query := `SELECT ` + invitationColumns + ` FROM invitations
				  WHERE organization_id IS NULL
				  ORDER BY created_at DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		orgBytes, marshalErr := organizationID.MarshalBinary()
		if marshalErr != nil {
			return nil, apperrors.Wrap(marshalErr, "failed to marshal organization id")
		}
		query := `SELECT ` + invitationColumns + ` FROM invitations
				  WHERE organization_id = ?
				  ORDER BY created_at DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, orgBytes, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list invitations")
	}
	defer rows.Close()

	var invitations []*domain.Invitation
	for rows.Next() {
		invitation, err := scanMySQLInvitation(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan invitation")
		}
		invitations = append(invitations, invitation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate invitations")
	}
	return invitations, nil
}

// MarkExpired flips pending invitations whose expiry has passed to the
// expired state and returns how many rows changed.
func (m *MySQLInvitationRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE invitations
			  SET status = ?, updated_at = NOW()
			  WHERE status = ? AND expires_at < ?`

	result, err := querier.ExecContext(ctx, query, domain.StatusExpired, domain.StatusPending, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to mark expired invitations")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rows, nil
}

// scanMySQLInvitation maps a row onto the domain entity, unmarshaling
// BINARY(16) UUID columns and decoding the encrypted email.
func scanMySQLInvitation(row rowScanner) (*domain.Invitation, error) {
	var invitation domain.Invitation
	var idBytes, organizationIDBytes, createdByBytes, acceptedIdentityIDBytes []byte
	var emailEncrypted string

	err := row.Scan(
		&idBytes,
		&emailEncrypted,
		&invitation.EmailBlindIndex,
		&invitation.Code,
		&invitation.Role,
		&invitation.MFAMethod,
		&organizationIDBytes,
		&invitation.Status,
		&createdByBytes,
		&invitation.ExpiresAt,
		&invitation.AcceptedAt,
		&acceptedIdentityIDBytes,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := invitation.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal invitation id")
	}
	if err := invitation.CreatedBy.UnmarshalBinary(createdByBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal created by")
	}
	if invitation.OrganizationID, err = unmarshalOptionalUUID(organizationIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}
	if invitation.AcceptedIdentityID, err = unmarshalOptionalUUID(acceptedIdentityIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal accepted identity id")
	}

	if invitation.EmailEncrypted, err = cryptoDomain.DecodeEncryptedValue(emailEncrypted); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// marshalOptionalUUID converts an optional UUID to its BINARY(16) form,
// passing nil through for NULL columns.
func marshalOptionalUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// unmarshalOptionalUUID converts a nullable BINARY(16) column back to an
// optional UUID.
func unmarshalOptionalUUID(b []byte) (*uuid.UUID, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &id, nil
}
