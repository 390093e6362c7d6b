package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/allisson/identity/internal/http"
	identityHttp "github.com/allisson/identity/internal/identity/http"
	invitationHttp "github.com/allisson/identity/internal/invitation/http"
	"github.com/allisson/identity/internal/metrics"
	mfaHttp "github.com/allisson/identity/internal/mfa/http"
	outboxUsecase "github.com/allisson/identity/internal/outbox/usecase"
)

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	registrar, err := c.buildRoutes()
	if err != nil {
		return nil, err
	}

	var middlewares []gin.HandlerFunc
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	if provider != nil {
		middlewares = append(middlewares, metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace))
	}

	gin.SetMode(c.config.GetGinMode())

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.config.CORSEnabled, c.config.CORSAllowOrigins, middlewares, registrar)

	return server, nil
}

// buildRoutes assembles the handlers and returns the route registrar for the
// API server.
func (c *Container) buildRoutes() (http.RouteRegistrar, error) {
	logger := c.Logger()

	identityUseCase, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for routes: %w", err)
	}

	mfaUseCase, err := c.MFAUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get mfa use case for routes: %w", err)
	}

	invitationUseCase, err := c.InvitationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation use case for routes: %w", err)
	}

	authHandler := identityHttp.NewAuthHandler(
		identityUseCase,
		mfaUseCase,
		logger,
		c.config.RefreshTokenExpiration,
		c.config.CookieSecure,
	)
	mfaHandler := mfaHttp.NewMFAHandler(mfaUseCase, logger)
	invitationHandler := invitationHttp.NewInvitationHandler(invitationUseCase, logger)

	authMiddleware := identityHttp.AuthenticationMiddleware(c.TokenService(), logger)

	// One shared limiter covers every credential endpoint, so an attacker
	// cannot multiply the budget by rotating endpoints.
	var rateLimitMiddleware gin.HandlerFunc
	if c.config.RateLimitEnabled {
		rateLimitMiddleware = identityHttp.IPRateLimitMiddleware(
			c.config.RateLimitRequestsPerSec,
			c.config.RateLimitBurst,
			logger,
		)
	}

	return func(router gin.IRouter) {
		auth := router.Group("/v1/auth")
		auth.POST("/signup", authHandler.SignUpHandler)

		credentials := auth.Group("")
		if rateLimitMiddleware != nil {
			credentials.Use(rateLimitMiddleware)
		}
		credentials.POST("/signin", authHandler.SignInHandler)
		credentials.POST("/refresh", authHandler.RefreshHandler)

		session := auth.Group("")
		session.Use(authMiddleware)
		session.POST("/logout", authHandler.LogoutHandler)
		session.POST("/totp/setup", mfaHandler.TOTPSetupHandler)
		session.POST("/totp/verify", mfaHandler.TOTPVerifyHandler)

		otp := session.Group("")
		if rateLimitMiddleware != nil {
			otp.Use(rateLimitMiddleware)
		}
		otp.POST("/otp/send", mfaHandler.OTPSendHandler)
		otp.POST("/otp/verify", mfaHandler.OTPVerifyHandler)

		identities := router.Group("/v1/identities")
		identities.Use(authMiddleware)
		identities.GET("/me", authHandler.MeHandler)

		invitations := router.Group("/v1/invitations")
		invitations.GET("/verify", invitationHandler.VerifyHandler)
		invitations.POST("/accept", invitationHandler.AcceptHandler)

		managed := invitations.Group("")
		managed.Use(authMiddleware)
		managed.POST("", invitationHandler.CreateHandler)
		managed.GET("", invitationHandler.ListHandler)
	}, nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	eventProcessor, err := c.EventProcessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get event processor for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:      c.config.OutboxInterval,
		BatchSize:     c.config.OutboxBatchSize,
		MaxRetries:    c.config.OutboxMaxRetries,
		RetryInterval: c.config.OutboxRetryInterval,
	}

	useCase := outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger)

	return useCase, nil
}
