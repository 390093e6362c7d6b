// Package repository provides data persistence implementations for invitation entities.
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

const invitationColumns = `id, email_encrypted, email_blind_index, code, role, mfa_method,
	organization_id, status, created_by, expires_at, accepted_at, accepted_identity_id,
	created_at, updated_at`

// PostgreSQLInvitationRepository handles invitation persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLInvitationRepository struct {
	db *sql.DB
}

// NewPostgreSQLInvitationRepository creates a new PostgreSQL invitation repository.
func NewPostgreSQLInvitationRepository(db *sql.DB) *PostgreSQLInvitationRepository {
	return &PostgreSQLInvitationRepository{db: db}
}

// Create inserts a new invitation.
func (r *PostgreSQLInvitationRepository) Create(ctx context.Context, invitation *domain.Invitation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO invitations (id, email_encrypted, email_blind_index, code, role, mfa_method,
				organization_id, status, created_by, expires_at, accepted_at, accepted_identity_id,
				created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		invitation.ID,
		invitation.EmailEncrypted.Encode(),
		invitation.EmailBlindIndex,
		invitation.Code,
		invitation.Role,
		invitation.MFAMethod,
		invitation.OrganizationID,
		invitation.Status,
		invitation.CreatedBy,
		invitation.ExpiresAt,
		invitation.AcceptedAt,
		invitation.AcceptedIdentityID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create invitation")
	}
	return nil
}

// GetByID retrieves an invitation by ID.
func (r *PostgreSQLInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	invitation, err := scanInvitation(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get invitation by id")
	}
	return invitation, nil
}

// GetPendingByBlindIndex retrieves the pending invitation for an email, if
// one exists. Used for duplicate detection before creating a new invitation.
func (r *PostgreSQLInvitationRepository) GetPendingByBlindIndex(ctx context.Context, blindIndex string) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM invitations
			  WHERE email_blind_index = $1 AND status = $2
			  ORDER BY created_at DESC LIMIT 1`

	invitation, err := scanInvitation(querier.QueryRowContext(ctx, query, blindIndex, domain.StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get pending invitation by blind index")
	}
	return invitation, nil
}

// Update modifies an existing invitation.
func (r *PostgreSQLInvitationRepository) Update(ctx context.Context, invitation *domain.Invitation) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE invitations
			  SET status = $1,
				  accepted_at = $2,
				  accepted_identity_id = $3,
				  expires_at = $4,
				  updated_at = NOW()
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		invitation.Status,
		invitation.AcceptedAt,
		invitation.AcceptedIdentityID,
		invitation.ExpiresAt,
		invitation.ID,
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
// only if it is still pending. Zero rows affected means another acceptance or
// the expiry sweep got there first, reported as ErrInvitationAlreadyUsed.
// This is what keeps an invitation single use under concurrent accepts.
func (r *PostgreSQLInvitationRepository) UpdateStatusIfPending(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	acceptedIdentityID *uuid.UUID,
	acceptedAt *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE invitations
			  SET status = $1, accepted_identity_id = $2, accepted_at = $3, updated_at = NOW()
			  WHERE id = $4 AND status = $5`

	result, err := querier.ExecContext(ctx, query, status, acceptedIdentityID, acceptedAt, id, domain.StatusPending)
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
func (r *PostgreSQLInvitationRepository) ListByOrganization(
	ctx context.Context,
	organizationID *uuid.UUID,
	limit, offset int,
) ([]*domain.Invitation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM invitations
			  WHERE ($1::uuid IS NULL AND organization_id IS NULL) OR organization_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list invitations")
	}
	defer rows.Close()

	var invitations []*domain.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
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
// expired state and returns how many rows changed. Run periodically; reads
// also expire lazily, so the sweep only keeps the table tidy.
func (r *PostgreSQLInvitationRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE invitations
			  SET status = $1, updated_at = NOW()
			  WHERE status = $2 AND expires_at < $3`

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

// scanInvitation maps a row onto the domain entity, decoding the encrypted
// email column.
func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	var invitation domain.Invitation
	var emailEncrypted string

	err := row.Scan(
		&invitation.ID,
		&emailEncrypted,
		&invitation.EmailBlindIndex,
		&invitation.Code,
		&invitation.Role,
		&invitation.MFAMethod,
		&invitation.OrganizationID,
		&invitation.Status,
		&invitation.CreatedBy,
		&invitation.ExpiresAt,
		&invitation.AcceptedAt,
		&invitation.AcceptedIdentityID,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if invitation.EmailEncrypted, err = cryptoDomain.DecodeEncryptedValue(emailEncrypted); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanInvitation.
type rowScanner interface {
	Scan(dest ...any) error
}
