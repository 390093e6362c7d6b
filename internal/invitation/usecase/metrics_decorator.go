package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/invitation/domain"
	"github.com/allisson/identity/internal/metrics"
)

// invitationUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type invitationUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewInvitationUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewInvitationUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &invitationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (i *invitationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	i.metrics.RecordOperation(ctx, "invitation", operation, status)
	i.metrics.RecordDuration(ctx, "invitation", operation, time.Since(start), status)
}

// Create records metrics for invitation issuance operations.
func (i *invitationUseCaseWithMetrics) Create(ctx context.Context, input CreateInvitationInput) (*domain.Invitation, error) {
	start := time.Now()
	invitation, err := i.next.Create(ctx, input)
	i.record(ctx, "invitation_create", start, err)
	return invitation, err
}

// Validate records metrics for invitation code validation operations.
func (i *invitationUseCaseWithMetrics) Validate(ctx context.Context, invitationID uuid.UUID, code string) (*domain.Invitation, error) {
	start := time.Now()
	invitation, err := i.next.Validate(ctx, invitationID, code)
	i.record(ctx, "invitation_validate", start, err)
	return invitation, err
}

// Accept records metrics for invitation acceptance operations.
func (i *invitationUseCaseWithMetrics) Accept(ctx context.Context, input AcceptInvitationInput) (*identityDomain.Identity, error) {
	start := time.Now()
	identity, err := i.next.Accept(ctx, input)
	i.record(ctx, "invitation_accept", start, err)
	return identity, err
}

// ListByOrganization records metrics for invitation listing operations.
func (i *invitationUseCaseWithMetrics) ListByOrganization(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*domain.Invitation, error) {
	start := time.Now()
	invitations, err := i.next.ListByOrganization(ctx, organizationID, limit, offset)
	i.record(ctx, "invitation_list", start, err)
	return invitations, err
}

// ExpireStale records metrics for the expiry sweep.
func (i *invitationUseCaseWithMetrics) ExpireStale(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := i.next.ExpireStale(ctx)
	i.record(ctx, "invitation_expire_stale", start, err)
	return count, err
}
