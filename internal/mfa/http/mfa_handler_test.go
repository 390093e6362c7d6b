package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityHttp "github.com/allisson/identity/internal/identity/http"
	"github.com/allisson/identity/internal/identity/service"
	mfaDomain "github.com/allisson/identity/internal/mfa/domain"
	"github.com/allisson/identity/internal/mfa/http/dto"
)

// MockMFAUseCase is a mock implementation of the MFA UseCase for testing.
type MockMFAUseCase struct {
	mock.Mock
}

func (m *MockMFAUseCase) EnrollTOTP(ctx context.Context, identityID uuid.UUID) (*mfaDomain.TOTPEnrollment, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mfaDomain.TOTPEnrollment), args.Error(1)
}

func (m *MockMFAUseCase) VerifyTOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	args := m.Called(ctx, identityID, code)
	return args.Error(0)
}

func (m *MockMFAUseCase) IssueOTP(ctx context.Context, identityID uuid.UUID) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *MockMFAUseCase) VerifyOTP(ctx context.Context, identityID uuid.UUID, code string) error {
	args := m.Called(ctx, identityID, code)
	return args.Error(0)
}

// setupMFATestHandler creates a test MFA handler with mocked dependencies.
func setupMFATestHandler(t *testing.T) (*MFAHandler, *MockMFAUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockMFAUseCase := &MockMFAUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewMFAHandler(mockMFAUseCase, logger)

	return handler, mockMFAUseCase
}

// createTestContext creates a test Gin context with the given request,
// optionally authenticated as the given identity.
func createTestContext(method, path string, body interface{}, identityID *uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if identityID != nil {
		claims := &service.AccessClaims{Role: identityDomain.RoleOperator}
		claims.Subject = identityID.String()
		req = req.WithContext(identityHttp.WithClaims(req.Context(), claims))
	}

	c.Request = req

	return c, w
}

func TestMFAHandler_TOTPSetupHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())
		enrollment := &mfaDomain.TOTPEnrollment{
			Secret:     "JBSWY3DPEHPK3PXP",
			OTPAuthURL: "otpauth://totp/identity:grace@example.com?secret=JBSWY3DPEHPK3PXP",
		}

		mockUseCase.On("EnrollTOTP", mock.Anything, identityID).
			Return(enrollment, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/setup", nil, &identityID)

		handler.TOTPSetupHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.TOTPEnrollmentResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, enrollment.Secret, response.Secret)
		assert.Equal(t, enrollment.OTPAuthURL, response.OTPAuthURL)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NoClaims", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/setup", nil, nil)

		handler.TOTPSetupHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "EnrollTOTP", mock.Anything, mock.Anything)
	})

	t.Run("Error_MethodNotConfigured", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("EnrollTOTP", mock.Anything, identityID).
			Return(nil, mfaDomain.ErrTOTPNotConfigured).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/setup", nil, &identityID)

		handler.TOTPSetupHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestMFAHandler_TOTPVerifyHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("VerifyTOTP", mock.Anything, identityID, "123456").
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/verify", dto.VerifyCodeRequest{Code: "123456"}, &identityID)

		handler.TOTPVerifyHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "verified")

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidCodeFormat", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/verify", dto.VerifyCodeRequest{Code: "12ab"}, &identityID)

		handler.TOTPVerifyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "VerifyTOTP", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_WrongCode", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("VerifyTOTP", mock.Anything, identityID, "000000").
			Return(mfaDomain.ErrInvalidMFACode).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/verify", dto.VerifyCodeRequest{Code: "000000"}, &identityID)

		handler.TOTPVerifyHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotEnrolled", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("VerifyTOTP", mock.Anything, identityID, "123456").
			Return(mfaDomain.ErrTOTPNotEnrolled).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/totp/verify", dto.VerifyCodeRequest{Code: "123456"}, &identityID)

		handler.TOTPVerifyHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestMFAHandler_OTPSendHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("IssueOTP", mock.Anything, identityID).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/otp/send", nil, &identityID)

		handler.OTPSendHandler(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "sent")

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_MethodNotConfigured", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("IssueOTP", mock.Anything, identityID).
			Return(mfaDomain.ErrOTPNotConfigured).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/otp/send", nil, &identityID)

		handler.OTPSendHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestMFAHandler_OTPVerifyHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("VerifyOTP", mock.Anything, identityID, "654321").
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/otp/verify", dto.VerifyCodeRequest{Code: "654321"}, &identityID)

		handler.OTPVerifyHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_ExpiredOrMissingCode", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		mockUseCase.On("VerifyOTP", mock.Anything, identityID, "654321").
			Return(mfaDomain.ErrOTPNotFound).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/otp/verify", dto.VerifyCodeRequest{Code: "654321"}, &identityID)

		handler.OTPVerifyHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, mockUseCase := setupMFATestHandler(t)

		identityID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodPost, "/v1/auth/otp/verify", nil, &identityID)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.OTPVerifyHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
	})
}
