package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/metrics"
)

// identityUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type identityUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewIdentityUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewIdentityUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &identityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (i *identityUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	i.metrics.RecordOperation(ctx, "identity", operation, status)
	i.metrics.RecordDuration(ctx, "identity", operation, time.Since(start), status)
}

// Register records metrics for identity registration operations.
func (i *identityUseCaseWithMetrics) Register(ctx context.Context, input RegisterIdentityInput) (*domain.Identity, error) {
	start := time.Now()
	identity, err := i.next.Register(ctx, input)
	i.record(ctx, "identity_register", start, err)
	return identity, err
}

// Authenticate records metrics for password sign-in operations.
func (i *identityUseCaseWithMetrics) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	start := time.Now()
	identity, err := i.next.Authenticate(ctx, email, password)
	i.record(ctx, "identity_authenticate", start, err)
	return identity, err
}

// IssueSession records metrics for session issuance operations.
func (i *identityUseCaseWithMetrics) IssueSession(ctx context.Context, identityID uuid.UUID) (*Session, error) {
	start := time.Now()
	session, err := i.next.IssueSession(ctx, identityID)
	i.record(ctx, "session_issue", start, err)
	return session, err
}

// RotateSession records metrics for refresh token rotation operations.
func (i *identityUseCaseWithMetrics) RotateSession(ctx context.Context, refreshToken string) (*Session, error) {
	start := time.Now()
	session, err := i.next.RotateSession(ctx, refreshToken)
	i.record(ctx, "session_rotate", start, err)
	return session, err
}

// RevokeSession records metrics for session revocation operations.
func (i *identityUseCaseWithMetrics) RevokeSession(ctx context.Context, identityID uuid.UUID) error {
	start := time.Now()
	err := i.next.RevokeSession(ctx, identityID)
	i.record(ctx, "session_revoke", start, err)
	return err
}

// Get records metrics for profile retrieval operations.
func (i *identityUseCaseWithMetrics) Get(ctx context.Context, identityID uuid.UUID) (*Profile, error) {
	start := time.Now()
	profile, err := i.next.Get(ctx, identityID)
	i.record(ctx, "identity_get", start, err)
	return profile, err
}
