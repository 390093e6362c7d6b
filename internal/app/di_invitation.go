package app

import (
	"fmt"
	"time"

	invitationRepository "github.com/allisson/identity/internal/invitation/repository"
	invitationService "github.com/allisson/identity/internal/invitation/service"
	invitationUsecase "github.com/allisson/identity/internal/invitation/usecase"
)

// InvitationRepository returns the invitation repository instance.
func (c *Container) InvitationRepository() (invitationUsecase.InvitationRepository, error) {
	var err error
	c.invitationRepoInit.Do(func() {
		c.invitationRepo, err = c.initInvitationRepository()
		if err != nil {
			c.initErrors["invitationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["invitationRepo"]; exists {
		return nil, storedErr
	}
	return c.invitationRepo, nil
}

// InvitationUseCase returns the invitation use case instance.
func (c *Container) InvitationUseCase() (invitationUsecase.UseCase, error) {
	var err error
	c.invitationUseCaseInit.Do(func() {
		c.invitationUseCase, err = c.initInvitationUseCase()
		if err != nil {
			c.initErrors["invitationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["invitationUseCase"]; exists {
		return nil, storedErr
	}
	return c.invitationUseCase, nil
}

// initInvitationRepository creates the invitation repository instance.
func (c *Container) initInvitationRepository() (invitationUsecase.InvitationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for invitation repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return invitationRepository.NewMySQLInvitationRepository(db), nil
	case "postgres":
		return invitationRepository.NewPostgreSQLInvitationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInvitationUseCase creates the invitation use case with all its dependencies.
func (c *Container) initInvitationUseCase() (invitationUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for invitation use case: %w", err)
	}

	invitationRepo, err := c.InvitationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation repository for invitation use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for invitation use case: %w", err)
	}

	identityUseCase, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for invitation use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for invitation use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for invitation use case: %w", err)
	}

	blindIndexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for invitation use case: %w", err)
	}

	mailSender, err := c.Mailer()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailer for invitation use case: %w", err)
	}

	expiration := time.Duration(c.config.InvitationExpirationDays) * 24 * time.Hour

	useCase := invitationUsecase.NewInvitationUseCase(
		txManager,
		invitationRepo,
		identityRepo,
		identityUseCase,
		outboxRepo,
		invitationService.NewCodeGenerator(),
		fieldCipher,
		blindIndexer,
		mailSender,
		c.Logger(),
		expiration,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for invitation use case: %w", err)
	}

	return invitationUsecase.NewInvitationUseCaseWithMetrics(useCase, businessMetrics), nil
}
