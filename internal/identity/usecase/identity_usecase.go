// Package usecase implements the identity business logic: registration with
// field encryption, password sign-in, and the refresh token session lifecycle.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/identity/service"
	outboxDomain "github.com/allisson/identity/internal/outbox/domain"
	appValidation "github.com/allisson/identity/internal/validation"
)

// RegisterIdentityInput contains the input data for identity registration.
type RegisterIdentityInput struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Password       string           `json:"password"`
	Role           domain.Role      `json:"role"`
	OrganizationID *uuid.UUID       `json:"organization_id"`
	MFAMethod      domain.MFAMethod `json:"mfa_method"`
	CreatedBy      *uuid.UUID       `json:"created_by"`
	IsVerified     bool             `json:"is_verified"`
}

// Session is an issued token pair. The refresh token is returned in plain
// form exactly once; only its digest is stored.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the decrypted read model of an identity.
type Profile struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Role           domain.Role      `json:"role"`
	OrganizationID *uuid.UUID       `json:"organization_id"`
	MFAMethod      domain.MFAMethod `json:"mfa_method"`
	TOTPEnabled    bool             `json:"totp_enabled"`
	IsVerified     bool             `json:"is_verified"`
	LastLoginAt    *time.Time       `json:"last_login_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

// UseCase defines the interface for identity business logic operations.
type UseCase interface {
	Register(ctx context.Context, input RegisterIdentityInput) (*domain.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Identity, error)
	IssueSession(ctx context.Context, identityID uuid.UUID) (*Session, error)
	RotateSession(ctx context.Context, refreshToken string) (*Session, error)
	RevokeSession(ctx context.Context, identityID uuid.UUID) error
	Get(ctx context.Context, identityID uuid.UUID) (*Profile, error)
}

// IdentityRepository interface defines identity repository operations.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByBlindIndex(ctx context.Context, blindIndex string) (*domain.Identity, error)
	Update(ctx context.Context, identity *domain.Identity) error
	UpdateTOTP(ctx context.Context, id uuid.UUID, secret cryptoDomain.EncryptedValue, enabled bool) error
	UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error
	ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutboxEventRepository interface defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// IdentityUseCase handles identity-related business logic.
type IdentityUseCase struct {
	txManager      database.TxManager
	identityRepo   IdentityRepository
	outboxRepo     OutboxEventRepository
	tokenService   service.TokenService
	fieldCipher    cryptoService.FieldCipher
	blindIndexer   cryptoService.BlindIndexer
	passwordHasher *pwdhash.PasswordHasher
}

// NewIdentityUseCase creates a new IdentityUseCase.
func NewIdentityUseCase(
	txManager database.TxManager,
	identityRepo IdentityRepository,
	outboxRepo OutboxEventRepository,
	tokenService service.TokenService,
	fieldCipher cryptoService.FieldCipher,
	blindIndexer cryptoService.BlindIndexer,
) (*IdentityUseCase, error) {
	// Interactive policy for login-path password hashing
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &IdentityUseCase{
		txManager:      txManager,
		identityRepo:   identityRepo,
		outboxRepo:     outboxRepo,
		tokenService:   tokenService,
		fieldCipher:    fieldCipher,
		blindIndexer:   blindIndexer,
		passwordHasher: hasher,
	}, nil
}

// validateRegisterIdentityInput validates the registration input using jellydator/validation.
func (uc *IdentityUseCase) validateRegisterIdentityInput(input RegisterIdentityInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	if !input.Role.IsValid() {
		return domain.ErrInvalidRole
	}
	if !input.MFAMethod.IsValid() {
		return domain.ErrInvalidMFAMethod
	}
	if input.Role.IsClientScoped() && input.OrganizationID == nil {
		return domain.ErrOrganizationRequired
	}
	return nil
}

// Register creates a new identity with encrypted PII fields and records an
// identity.created event in the same transaction. The event payload carries
// only non-sensitive attributes.
func (uc *IdentityUseCase) Register(ctx context.Context, input RegisterIdentityInput) (*domain.Identity, error) {
	if err := uc.validateRegisterIdentityInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	nameEncrypted, err := uc.fieldCipher.Encrypt([]byte(input.Name))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt name")
	}

	normalizedEmail := cryptoService.Normalize(input.Email)
	emailEncrypted, err := uc.fieldCipher.Encrypt([]byte(normalizedEmail))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt email")
	}

	identity := &domain.Identity{
		ID:              uuid.Must(uuid.NewV7()),
		NameEncrypted:   nameEncrypted,
		EmailEncrypted:  emailEncrypted,
		EmailBlindIndex: uc.blindIndexer.Index(input.Email),
		PasswordHash:    passwordHash,
		Role:            input.Role,
		OrganizationID:  input.OrganizationID,
		MFAMethod:       input.MFAMethod,
		IsVerified:      input.IsVerified,
		CreatedBy:       input.CreatedBy,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.identityRepo.Create(ctx, identity); err != nil {
			return err
		}

		eventPayload := map[string]interface{}{
			"identity_id":     identity.ID,
			"role":            identity.Role,
			"organization_id": identity.OrganizationID,
			"mfa_method":      identity.MFAMethod,
			"created_by":      identity.CreatedBy,
		}
		payloadJSON, err := json.Marshal(eventPayload)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}

		outboxEvent := outboxDomain.NewPendingEvent(outboxDomain.EventTypeIdentityCreated, string(payloadJSON))

		if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return identity, nil
}

// Authenticate verifies an email and password pair. Lookup failure and
// password mismatch both come back as ErrInvalidCredentials, so the response
// cannot be used to enumerate registered emails. Callers decide whether
// a second factor is still required before issuing a session.
func (uc *IdentityUseCase) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	identity, err := uc.identityRepo.GetByBlindIndex(ctx, uc.blindIndexer.Index(email))
	if err != nil {
		if apperrors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := uc.passwordHasher.Verify([]byte(password), identity.PasswordHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return identity, nil
}

// IssueSession generates a fresh token pair for the identity, stores the
// refresh token digest, and stamps the login time. Any previously issued
// refresh token is invalidated by the overwrite.
func (uc *IdentityUseCase) IssueSession(ctx context.Context, identityID uuid.UUID) (*Session, error) {
	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	session, refreshTokenHash, err := uc.generateSession(identity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	identity.RefreshTokenHash = &refreshTokenHash
	identity.LastLoginAt = &now

	if err := uc.identityRepo.Update(ctx, identity); err != nil {
		return nil, err
	}

	return session, nil
}

// RotateSession exchanges a valid refresh token for a fresh token pair. The
// stored digest is swapped with a conditional update keyed on the presented
// token's digest, so of two concurrent rotations with the same token exactly
// one succeeds and the other gets ErrInvalidSession.
func (uc *IdentityUseCase) RotateSession(ctx context.Context, refreshToken string) (*Session, error) {
	identityID, err := uc.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		if apperrors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	presentedHash := uc.tokenService.HashRefreshToken(refreshToken)
	if identity.RefreshTokenHash == nil || !uc.tokenService.CompareHash(presentedHash, *identity.RefreshTokenHash) {
		return nil, domain.ErrInvalidSession
	}

	session, newHash, err := uc.generateSession(identity)
	if err != nil {
		return nil, err
	}

	if err := uc.identityRepo.UpdateRefreshTokenHash(ctx, identity.ID, presentedHash, newHash); err != nil {
		return nil, err
	}

	return session, nil
}

// RevokeSession invalidates the identity's refresh token. Outstanding access
// tokens stay valid until they expire; only the refresh path is cut.
func (uc *IdentityUseCase) RevokeSession(ctx context.Context, identityID uuid.UUID) error {
	return uc.identityRepo.ClearRefreshTokenHash(ctx, identityID)
}

// Get returns the decrypted read model of an identity.
func (uc *IdentityUseCase) Get(ctx context.Context, identityID uuid.UUID) (*Profile, error) {
	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	name, err := uc.fieldCipher.Decrypt(identity.NameEncrypted)
	if err != nil {
		return nil, err
	}
	email, err := uc.fieldCipher.Decrypt(identity.EmailEncrypted)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:             identity.ID,
		Name:           string(name),
		Email:          string(email),
		Role:           identity.Role,
		OrganizationID: identity.OrganizationID,
		MFAMethod:      identity.MFAMethod,
		TOTPEnabled:    identity.TOTPEnabled,
		IsVerified:     identity.IsVerified,
		LastLoginAt:    identity.LastLoginAt,
		CreatedAt:      identity.CreatedAt,
	}, nil
}

// generateSession builds the token pair and the digest to persist. The access
// token carries the decrypted email claim.
func (uc *IdentityUseCase) generateSession(identity *domain.Identity) (*Session, string, error) {
	email, err := uc.fieldCipher.Decrypt(identity.EmailEncrypted)
	if err != nil {
		return nil, "", err
	}

	accessToken, err := uc.tokenService.GenerateAccessToken(identity, string(email))
	if err != nil {
		return nil, "", err
	}

	refreshToken, err := uc.tokenService.GenerateRefreshToken(identity.ID)
	if err != nil {
		return nil, "", err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(uc.tokenService.AccessTokenTTL().Seconds()),
	}, uc.tokenService.HashRefreshToken(refreshToken), nil
}
