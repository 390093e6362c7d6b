package app

import (
	"fmt"

	mfaService "github.com/allisson/identity/internal/mfa/service"
	mfaUsecase "github.com/allisson/identity/internal/mfa/usecase"
)

// TOTPService returns the authenticator code service.
func (c *Container) TOTPService() mfaService.TOTPService {
	c.totpServiceInit.Do(func() {
		c.totpService = mfaService.NewTOTPService(c.config.TOTPIssuer)
	})
	return c.totpService
}

// MFAUseCase returns the MFA use case instance.
func (c *Container) MFAUseCase() (mfaUsecase.UseCase, error) {
	var err error
	c.mfaUseCaseInit.Do(func() {
		c.mfaUseCase, err = c.initMFAUseCase()
		if err != nil {
			c.initErrors["mfaUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mfaUseCase"]; exists {
		return nil, storedErr
	}
	return c.mfaUseCase, nil
}

// initMFAUseCase creates the MFA use case with all its dependencies.
func (c *Container) initMFAUseCase() (mfaUsecase.UseCase, error) {
	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for mfa use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for mfa use case: %w", err)
	}

	otpCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for mfa use case: %w", err)
	}

	mailSender, err := c.Mailer()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailer for mfa use case: %w", err)
	}

	useCase := mfaUsecase.NewMFAUseCase(
		identityRepo,
		c.TOTPService(),
		fieldCipher,
		otpCache,
		mailSender,
		c.config.OTPExpiration,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for mfa use case: %w", err)
	}

	return mfaUsecase.NewMFAUseCaseWithMetrics(useCase, businessMetrics), nil
}
