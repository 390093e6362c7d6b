// Package usecase implements the invitation business logic: issuing
// role-scoped invitations, validating presented codes, and turning an
// accepted invitation into a registered identity.
package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUsecase "github.com/allisson/identity/internal/identity/usecase"
	"github.com/allisson/identity/internal/invitation/domain"
	"github.com/allisson/identity/internal/invitation/service"
	"github.com/allisson/identity/internal/mailer"
	outboxDomain "github.com/allisson/identity/internal/outbox/domain"
	appValidation "github.com/allisson/identity/internal/validation"
)

// CreateInvitationInput contains the input data for issuing an invitation.
type CreateInvitationInput struct {
	InviterID      uuid.UUID                `json:"inviter_id"`
	Email          string                   `json:"email"`
	Role           identityDomain.Role      `json:"role"`
	MFAMethod      identityDomain.MFAMethod `json:"mfa_method"`
	OrganizationID *uuid.UUID               `json:"organization_id"`
}

// AcceptInvitationInput contains the input data for accepting an invitation.
type AcceptInvitationInput struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Password     string    `json:"password"`
}

// UseCase defines the interface for invitation business logic operations.
type UseCase interface {
	Create(ctx context.Context, input CreateInvitationInput) (*domain.Invitation, error)
	Validate(ctx context.Context, invitationID uuid.UUID, code string) (*domain.Invitation, error)
	Accept(ctx context.Context, input AcceptInvitationInput) (*identityDomain.Identity, error)
	ListByOrganization(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*domain.Invitation, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// InvitationRepository interface defines invitation repository operations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *domain.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	GetPendingByBlindIndex(ctx context.Context, blindIndex string) (*domain.Invitation, error)
	Update(ctx context.Context, invitation *domain.Invitation) error
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status domain.Status, acceptedIdentityID *uuid.UUID, acceptedAt *time.Time) error
	ListByOrganization(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*domain.Invitation, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// InvitationUseCase handles invitation-related business logic.
type InvitationUseCase struct {
	txManager       database.TxManager
	invitationRepo  InvitationRepository
	identityRepo    identityUsecase.IdentityRepository
	identityUseCase identityUsecase.UseCase
	outboxRepo      identityUsecase.OutboxEventRepository
	codeGenerator   service.CodeGenerator
	fieldCipher     cryptoService.FieldCipher
	blindIndexer    cryptoService.BlindIndexer
	mailer          mailer.Mailer
	logger          *slog.Logger
	expiration      time.Duration
}

// NewInvitationUseCase creates a new InvitationUseCase.
func NewInvitationUseCase(
	txManager database.TxManager,
	invitationRepo InvitationRepository,
	identityRepo identityUsecase.IdentityRepository,
	identityUC identityUsecase.UseCase,
	outboxRepo identityUsecase.OutboxEventRepository,
	codeGenerator service.CodeGenerator,
	fieldCipher cryptoService.FieldCipher,
	blindIndexer cryptoService.BlindIndexer,
	mailSender mailer.Mailer,
	logger *slog.Logger,
	expiration time.Duration,
) *InvitationUseCase {
	return &InvitationUseCase{
		txManager:       txManager,
		invitationRepo:  invitationRepo,
		identityRepo:    identityRepo,
		identityUseCase: identityUC,
		outboxRepo:      outboxRepo,
		codeGenerator:   codeGenerator,
		fieldCipher:     fieldCipher,
		blindIndexer:    blindIndexer,
		mailer:          mailSender,
		logger:          logger,
		expiration:      expiration,
	}
}

// validateCreateInvitationInput validates the invitation input using jellydator/validation.
func (uc *InvitationUseCase) validateCreateInvitationInput(input CreateInvitationInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	if !input.Role.IsValid() {
		return identityDomain.ErrInvalidRole
	}
	if !input.MFAMethod.IsValid() {
		return identityDomain.ErrInvalidMFAMethod
	}
	if input.Role.IsClientScoped() && input.OrganizationID == nil {
		return identityDomain.ErrOrganizationRequired
	}
	return nil
}

// Create issues a new invitation. The inviter's role must be allowed to grant
// the requested role, and only one pending invitation may exist per email at
// a time. The row and its invitation.created event commit together; the mail
// is sent after commit and a delivery failure does not undo the invitation.
func (uc *InvitationUseCase) Create(ctx context.Context, input CreateInvitationInput) (*domain.Invitation, error) {
	if err := uc.validateCreateInvitationInput(input); err != nil {
		return nil, err
	}

	inviter, err := uc.identityRepo.GetByID(ctx, input.InviterID)
	if err != nil {
		return nil, err
	}
	if !domain.CanGrant(inviter.Role, input.Role) {
		return nil, domain.ErrRoleNotGrantable
	}

	now := time.Now().UTC()
	blindIndex := uc.blindIndexer.Index(input.Email)

	pending, err := uc.invitationRepo.GetPendingByBlindIndex(ctx, blindIndex)
	if err != nil && !apperrors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}
	if pending != nil {
		if !pending.IsExpired(now) {
			remaining := pending.ExpiresAt.Sub(now).Round(time.Minute)
			return nil, apperrors.Wrap(domain.ErrInvitationAlreadySent, fmt.Sprintf("expires in %s", remaining))
		}
		// lazily retire the stale row so a fresh invitation can go out,
		// with the same lifecycle event the Validate path emits
		pending.Status = domain.StatusExpired
		err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := uc.invitationRepo.Update(ctx, pending); err != nil {
				return err
			}
			return uc.createOutboxEvent(ctx, outboxDomain.EventTypeInvitationExpired, pending)
		})
		if err != nil {
			return nil, err
		}
	}

	code, err := uc.codeGenerator.Generate()
	if err != nil {
		return nil, err
	}

	normalizedEmail := cryptoService.Normalize(input.Email)
	emailEncrypted, err := uc.fieldCipher.Encrypt([]byte(normalizedEmail))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt email")
	}

	invitation := &domain.Invitation{
		ID:              uuid.Must(uuid.NewV7()),
		EmailEncrypted:  emailEncrypted,
		EmailBlindIndex: blindIndex,
		Code:            code,
		Role:            input.Role,
		MFAMethod:       input.MFAMethod,
		OrganizationID:  input.OrganizationID,
		Status:          domain.StatusPending,
		CreatedBy:       input.InviterID,
		ExpiresAt:       now.Add(uc.expiration),
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.invitationRepo.Create(ctx, invitation); err != nil {
			return err
		}
		return uc.createOutboxEvent(ctx, outboxDomain.EventTypeInvitationCreated, invitation)
	})
	if err != nil {
		return nil, err
	}

	uc.sendInvitationMail(ctx, invitation, normalizedEmail)

	return invitation, nil
}

// Validate checks a presented ID and code pair. An unknown ID and a wrong
// code are indistinguishable to the caller. Expiry is enforced here lazily:
// a pending row past its expiry flips to expired before the error is
// returned, with an invitation.expired event in the same transaction.
func (uc *InvitationUseCase) Validate(ctx context.Context, invitationID uuid.UUID, code string) (*domain.Invitation, error) {
	invitation, err := uc.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(invitation.Code), []byte(code)) != 1 {
		return nil, domain.ErrInvitationNotFound
	}

	now := time.Now().UTC()
	if invitation.Status == domain.StatusPending && invitation.IsExpired(now) {
		invitation.Status = domain.StatusExpired
		err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := uc.invitationRepo.Update(ctx, invitation); err != nil {
				return err
			}
			return uc.createOutboxEvent(ctx, outboxDomain.EventTypeInvitationExpired, invitation)
		})
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrInvitationExpired
	}

	switch invitation.Status {
	case domain.StatusExpired:
		return nil, domain.ErrInvitationExpired
	case domain.StatusAccepted:
		return nil, domain.ErrInvitationAlreadyUsed
	}

	return invitation, nil
}

// Accept consumes a pending invitation and registers the invitee. The
// invitation is claimed first with a conditional status update, which is what
// makes it single use under concurrent accepts; registration follows, and a
// registration failure releases the claim so the invitation can be retried.
func (uc *InvitationUseCase) Accept(ctx context.Context, input AcceptInvitationInput) (*identityDomain.Identity, error) {
	invitation, err := uc.Validate(ctx, input.InvitationID, input.Code)
	if err != nil {
		return nil, err
	}

	email, err := uc.fieldCipher.Decrypt(invitation.EmailEncrypted)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.invitationRepo.UpdateStatusIfPending(ctx, invitation.ID, domain.StatusAccepted, nil, &now); err != nil {
		return nil, err
	}

	identity, err := uc.identityUseCase.Register(ctx, identityUsecase.RegisterIdentityInput{
		Name:           input.Name,
		Email:          string(email),
		Password:       input.Password,
		Role:           invitation.Role,
		OrganizationID: invitation.OrganizationID,
		MFAMethod:      invitation.MFAMethod,
		CreatedBy:      &invitation.CreatedBy,
		IsVerified:     true,
	})
	if err != nil {
		// release the claim so the invitee can retry with valid input
		invitation.Status = domain.StatusPending
		invitation.AcceptedAt = nil
		invitation.AcceptedIdentityID = nil
		if revertErr := uc.invitationRepo.Update(ctx, invitation); revertErr != nil {
			uc.logger.Error("failed to release claimed invitation",
				"invitation_id", invitation.ID,
				"error", revertErr,
			)
		}
		return nil, err
	}

	invitation.Status = domain.StatusAccepted
	invitation.AcceptedAt = &now
	invitation.AcceptedIdentityID = &identity.ID

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.invitationRepo.Update(ctx, invitation); err != nil {
			return err
		}
		return uc.createOutboxEvent(ctx, outboxDomain.EventTypeInvitationAccepted, invitation)
	})
	if err != nil {
		return nil, err
	}

	return identity, nil
}

// ListByOrganization retrieves invitations for an organization, newest first.
func (uc *InvitationUseCase) ListByOrganization(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*domain.Invitation, error) {
	return uc.invitationRepo.ListByOrganization(ctx, organizationID, limit, offset)
}

// ExpireStale sweeps pending invitations whose expiry has passed.
func (uc *InvitationUseCase) ExpireStale(ctx context.Context) (int64, error) {
	return uc.invitationRepo.MarkExpired(ctx, time.Now().UTC())
}

// createOutboxEvent records an invitation lifecycle event. Payloads carry the
// inviter and lifecycle metadata so consumers can attribute the invitation,
// but no plaintext PII and no code.
func (uc *InvitationUseCase) createOutboxEvent(ctx context.Context, eventType string, invitation *domain.Invitation) error {
	eventPayload := map[string]interface{}{
		"invitation_id":   invitation.ID,
		"inviter_id":      invitation.CreatedBy,
		"role":            invitation.Role,
		"organization_id": invitation.OrganizationID,
		"status":          invitation.Status,
		"expires_at":      invitation.ExpiresAt,
		"message":         eventMessage(eventType),
	}
	payloadJSON, err := json.Marshal(eventPayload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	outboxEvent := outboxDomain.NewPendingEvent(eventType, string(payloadJSON))

	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// eventMessage is the human-readable summary consumers relay for each
// lifecycle transition.
func eventMessage(eventType string) string {
	switch eventType {
	case outboxDomain.EventTypeInvitationCreated:
		return "invitation issued"
	case outboxDomain.EventTypeInvitationAccepted:
		return "invitation accepted"
	case outboxDomain.EventTypeInvitationExpired:
		return "invitation expired"
	default:
		return ""
	}
}

// sendInvitationMail delivers the invitation ID and code to the invitee.
// Delivery failures are logged, not returned: the invitation row exists and
// the operator can follow up, while a transient mail outage does not block
// the flow for seven days behind the pending-duplicate check.
func (uc *InvitationUseCase) sendInvitationMail(ctx context.Context, invitation *domain.Invitation, email string) {
	message := mailer.Message{
		To:      email,
		Subject: "You have been invited",
		Text: fmt.Sprintf(
			"You have been invited to register. Invitation ID: %s Code: %s. The invitation expires on %s.",
			invitation.ID, invitation.Code, invitation.ExpiresAt.Format(time.RFC1123),
		),
		HTML: fmt.Sprintf(
			"<p>You have been invited to register.</p><p>Invitation ID: <strong>%s</strong><br>Code: <strong>%s</strong></p><p>The invitation expires on %s.</p>",
			invitation.ID, invitation.Code, invitation.ExpiresAt.Format(time.RFC1123),
		),
	}
	if err := uc.mailer.Send(ctx, message); err != nil {
		uc.logger.Warn("failed to send invitation mail",
			"invitation_id", invitation.ID,
			"error", err,
		)
	}
}
