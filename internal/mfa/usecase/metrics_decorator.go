package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/metrics"
	"github.com/allisson/identity/internal/mfa/domain"
)

// mfaUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type mfaUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewMFAUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewMFAUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &mfaUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *mfaUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "mfa", operation, status)
	d.metrics.RecordDuration(ctx, "mfa", operation, time.Since(start), status)
}

// EnrollTOTP records metrics for TOTP enrollment operations.
func (d *mfaUseCaseWithMetrics) EnrollTOTP(ctx context.Context, identityID uuid.UUID) (*domain.TOTPEnrollment, error) {
	start := time.Now()
	enrollment, err := d.next.EnrollTOTP(ctx, identityID)
	d.record(ctx, "totp_enroll", start, err)
	return enrollment, err
}

// VerifyTOTP records metrics for TOTP verification operations.
func (d *mfaUseCaseWithMetrics) VerifyTOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	start := time.Now()
	err := d.next.VerifyTOTP(ctx, identityID, code)
	d.record(ctx, "totp_verify", start, err)
	return err
}

// IssueOTP records metrics for passcode issuance operations.
func (d *mfaUseCaseWithMetrics) IssueOTP(ctx context.Context, identityID uuid.UUID) error {
	start := time.Now()
	err := d.next.IssueOTP(ctx, identityID)
	d.record(ctx, "otp_issue", start, err)
	return err
}

// VerifyOTP records metrics for passcode verification operations.
func (d *mfaUseCaseWithMetrics) VerifyOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	start := time.Now()
	err := d.next.VerifyOTP(ctx, identityID, code)
	d.record(ctx, "otp_verify", start, err)
	return err
}
