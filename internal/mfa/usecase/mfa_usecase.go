// Package usecase implements the second-factor flows: TOTP enrollment and
// verification, and issuing and checking email one-time passcodes.
package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/cache"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUsecase "github.com/allisson/identity/internal/identity/usecase"
	"github.com/allisson/identity/internal/mailer"
	"github.com/allisson/identity/internal/mfa/domain"
	"github.com/allisson/identity/internal/mfa/service"
)

const otpDigits = 6

// UseCase defines the interface for MFA business logic operations.
type UseCase interface {
	EnrollTOTP(ctx context.Context, identityID uuid.UUID) (*domain.TOTPEnrollment, error)
	VerifyTOTP(ctx context.Context, identityID uuid.UUID, code string) error
	IssueOTP(ctx context.Context, identityID uuid.UUID) error
	VerifyOTP(ctx context.Context, identityID uuid.UUID, code string) error
}

// MFAUseCase handles second-factor business logic.
type MFAUseCase struct {
	identityRepo identityUsecase.IdentityRepository
	totpService  service.TOTPService
	fieldCipher  cryptoService.FieldCipher
	cache        cache.Cache
	mailer       mailer.Mailer
	otpTTL       time.Duration
}

// NewMFAUseCase creates a new MFAUseCase.
func NewMFAUseCase(
	identityRepo identityUsecase.IdentityRepository,
	totpService service.TOTPService,
	fieldCipher cryptoService.FieldCipher,
	otpCache cache.Cache,
	mailSender mailer.Mailer,
	otpTTL time.Duration,
) *MFAUseCase {
	return &MFAUseCase{
		identityRepo: identityRepo,
		totpService:  totpService,
		fieldCipher:  fieldCipher,
		cache:        otpCache,
		mailer:       mailSender,
		otpTTL:       otpTTL,
	}
}

// EnrollTOTP returns the shared secret and otpauth URL for the identity. When
// a secret already exists it is reused, so scanning the enrollment screen
// twice does not silently invalidate an authenticator that was already set
// up. The secret is stored encrypted; enrollment does not activate the factor
// until a code verifies.
func (uc *MFAUseCase) EnrollTOTP(ctx context.Context, identityID uuid.UUID) (*domain.TOTPEnrollment, error) {
	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity.MFAMethod != identityDomain.MFAMethodTOTP {
		return nil, domain.ErrTOTPNotConfigured
	}

	email, err := uc.fieldCipher.Decrypt(identity.EmailEncrypted)
	if err != nil {
		return nil, err
	}

	if !identity.TOTPSecretEncrypted.IsZero() {
		secret, err := uc.fieldCipher.Decrypt(identity.TOTPSecretEncrypted)
		if err != nil {
			return nil, err
		}
		return &domain.TOTPEnrollment{
			Secret:     string(secret),
			OTPAuthURL: uc.totpService.BuildURL(string(secret), string(email)),
		}, nil
	}

	secret, otpauthURL, err := uc.totpService.GenerateSecret(string(email))
	if err != nil {
		return nil, err
	}

	secretEncrypted, err := uc.fieldCipher.Encrypt([]byte(secret))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt totp secret")
	}

	if err := uc.identityRepo.UpdateTOTP(ctx, identity.ID, secretEncrypted, false); err != nil {
		return nil, err
	}

	return &domain.TOTPEnrollment{Secret: secret, OTPAuthURL: otpauthURL}, nil
}

// VerifyTOTP checks an authenticator code. The first successful verification
// completes enrollment and activates the factor; it uses a wider drift window
// than sign-in verification.
func (uc *MFAUseCase) VerifyTOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		return err
	}
	if identity.MFAMethod != identityDomain.MFAMethodTOTP {
		return domain.ErrTOTPNotConfigured
	}
	if identity.TOTPSecretEncrypted.IsZero() {
		return domain.ErrTOTPNotEnrolled
	}

	secret, err := uc.fieldCipher.Decrypt(identity.TOTPSecretEncrypted)
	if err != nil {
		return err
	}

	skew := uint(service.LoginSkew)
	if !identity.TOTPEnabled {
		skew = service.SetupSkew
	}

	if !uc.totpService.Verify(code, string(secret), skew) {
		return domain.ErrInvalidMFACode
	}

	if !identity.TOTPEnabled {
		// Touch only the TOTP columns: a full-row update would write back
		// refresh_token_hash from this read and could undo a concurrent
		// session rotation.
		if err := uc.identityRepo.UpdateTOTP(ctx, identity.ID, identity.TOTPSecretEncrypted, true); err != nil {
			return err
		}
	}
	return nil
}

// IssueOTP generates a six-digit passcode, stores it with a TTL, and mails it
// to the identity's address. Issuing again before the previous code expires
// replaces it.
func (uc *MFAUseCase) IssueOTP(ctx context.Context, identityID uuid.UUID) error {
	identity, err := uc.identityRepo.GetByID(ctx, identityID)
	if err != nil {
		return err
	}
	if identity.MFAMethod != identityDomain.MFAMethodOTP {
		return domain.ErrOTPNotConfigured
	}

	email, err := uc.fieldCipher.Decrypt(identity.EmailEncrypted)
	if err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	if err := uc.cache.Set(ctx, otpKey(identityID), code, uc.otpTTL); err != nil {
		return err
	}

	message := mailer.Message{
		To:      string(email),
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(uc.otpTTL.Minutes())),
		HTML:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p>", code, int(uc.otpTTL.Minutes())),
	}
	if err := uc.mailer.Send(ctx, message); err != nil {
		return apperrors.Wrap(err, "failed to send otp mail")
	}
	return nil
}

// VerifyOTP checks a pending passcode. The code is consumed atomically on
// first presentation whether or not it matches, so it can neither be replayed
// nor brute forced within its TTL.
func (uc *MFAUseCase) VerifyOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	stored, err := uc.cache.GetDel(ctx, otpKey(identityID))
	if err != nil {
		if apperrors.Is(err, cache.ErrKeyNotFound) {
			return domain.ErrOTPNotFound
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.ErrInvalidMFACode
	}
	return nil
}

// otpKey namespaces pending passcodes by identity. Keys never carry the email
// address, so the cache holds no plaintext PII.
func otpKey(identityID uuid.UUID) string {
	return "otp:" + identityID.String()
}

// generateOTPCode produces a uniformly random six-digit code.
func generateOTPCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate otp code")
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
