package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	invitationDomain "github.com/allisson/identity/internal/invitation/domain"
	invitationUsecase "github.com/allisson/identity/internal/invitation/usecase"
)

type MockInvitationUseCase struct {
	mock.Mock
}

func (m *MockInvitationUseCase) Create(ctx context.Context, input invitationUsecase.CreateInvitationInput) (*invitationDomain.Invitation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invitationDomain.Invitation), args.Error(1)
}

func (m *MockInvitationUseCase) Validate(ctx context.Context, invitationID uuid.UUID, code string) (*invitationDomain.Invitation, error) {
	args := m.Called(ctx, invitationID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invitationDomain.Invitation), args.Error(1)
}

func (m *MockInvitationUseCase) Accept(ctx context.Context, input invitationUsecase.AcceptInvitationInput) (*identityDomain.Identity, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

func (m *MockInvitationUseCase) ListByOrganization(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*invitationDomain.Invitation, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invitationDomain.Invitation), args.Error(1)
}

func (m *MockInvitationUseCase) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestRunCleanExpiredInvitations(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &MockInvitationUseCase{}
		mockUseCase.On("ExpireStale", mock.Anything).Return(int64(7), nil)

		var out bytes.Buffer
		err := RunCleanExpiredInvitations(ctx, mockUseCase, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Marked 7 invitation(s) as expired")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &MockInvitationUseCase{}
		mockUseCase.On("ExpireStale", mock.Anything).Return(int64(3), nil)

		var out bytes.Buffer
		err := RunCleanExpiredInvitations(ctx, mockUseCase, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 3`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("sweep-error", func(t *testing.T) {
		mockUseCase := &MockInvitationUseCase{}
		mockUseCase.On("ExpireStale", mock.Anything).Return(int64(0), errors.New("database unavailable"))

		err := RunCleanExpiredInvitations(ctx, mockUseCase, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to expire stale invitations")
	})
}
