package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// mockIdentityUseCase is a mock implementation of UseCase for testing.
type mockIdentityUseCase struct {
	mock.Mock
}

func (m *mockIdentityUseCase) Register(ctx context.Context, input RegisterIdentityInput) (*domain.Identity, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *mockIdentityUseCase) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *mockIdentityUseCase) IssueSession(ctx context.Context, identityID uuid.UUID) (*Session, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *mockIdentityUseCase) RotateSession(ctx context.Context, refreshToken string) (*Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *mockIdentityUseCase) RevokeSession(ctx context.Context, identityID uuid.UUID) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *mockIdentityUseCase) Get(ctx context.Context, identityID uuid.UUID) (*Profile, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Profile), args.Error(1)
}

var _ UseCase = (*mockIdentityUseCase)(nil)

func TestIdentityMetricsDecorator_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockUseCase := &mockIdentityUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		identity := &domain.Identity{ID: uuid.Must(uuid.NewV7())}

		mockUseCase.On("Authenticate", ctx, "alice@example.com", "secret").Return(identity, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "identity", "identity_authenticate", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "identity", "identity_authenticate", mock.AnythingOfType("time.Duration"), "success").Return().Once()

		decorator := NewIdentityUseCaseWithMetrics(mockUseCase, mockMetrics)

		result, err := decorator.Authenticate(ctx, "alice@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, identity, result)

		mockUseCase.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockUseCase := &mockIdentityUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		mockUseCase.On("Authenticate", ctx, "alice@example.com", "wrong").
			Return(nil, domain.ErrInvalidCredentials).Once()
		mockMetrics.On("RecordOperation", ctx, "identity", "identity_authenticate", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "identity", "identity_authenticate", mock.AnythingOfType("time.Duration"), "error").Return().Once()

		decorator := NewIdentityUseCaseWithMetrics(mockUseCase, mockMetrics)

		_, err := decorator.Authenticate(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		mockUseCase.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestIdentityMetricsDecorator_RotateSession(t *testing.T) {
	ctx := context.Background()

	mockUseCase := &mockIdentityUseCase{}
	mockMetrics := &mockBusinessMetrics{}

	session := &Session{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}

	mockUseCase.On("RotateSession", ctx, "old-refresh").Return(session, nil).Once()
	mockMetrics.On("RecordOperation", ctx, "identity", "session_rotate", "success").Return().Once()
	mockMetrics.On("RecordDuration", ctx, "identity", "session_rotate", mock.AnythingOfType("time.Duration"), "success").Return().Once()

	decorator := NewIdentityUseCaseWithMetrics(mockUseCase, mockMetrics)

	result, err := decorator.RotateSession(ctx, "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, session, result)

	mockUseCase.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}
