// Package http provides the HTTP endpoints for second-factor management.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	identityHttp "github.com/allisson/identity/internal/identity/http"
	"github.com/allisson/identity/internal/mfa/http/dto"
	mfaUsecase "github.com/allisson/identity/internal/mfa/usecase"
	customValidation "github.com/allisson/identity/internal/validation"
)

// MFAHandler handles TOTP enrollment and verification plus email passcode
// issue and verification. All endpoints require an authenticated identity;
// the claims in the request context decide whose factor is touched.
type MFAHandler struct {
	mfaUseCase mfaUsecase.UseCase
	logger     *slog.Logger
}

// NewMFAHandler creates a new MFA handler with required dependencies.
func NewMFAHandler(mfaUC mfaUsecase.UseCase, logger *slog.Logger) *MFAHandler {
	return &MFAHandler{
		mfaUseCase: mfaUC,
		logger:     logger,
	}
}

// TOTPSetupHandler starts or resumes TOTP enrollment.
// POST /v1/auth/totp/setup - Requires authentication.
// Returns 200 OK with the shared secret and otpauth URL. The factor stays
// inactive until a code verifies.
func (h *MFAHandler) TOTPSetupHandler(c *gin.Context) {
	identityID, ok := h.identityFromClaims(c)
	if !ok {
		return
	}

	enrollment, err := h.mfaUseCase.EnrollTOTP(c.Request.Context(), identityID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEnrollmentToResponse(enrollment))
}

// TOTPVerifyHandler checks an authenticator code. The first successful
// verification activates the factor.
// POST /v1/auth/totp/verify - Requires authentication.
func (h *MFAHandler) TOTPVerifyHandler(c *gin.Context) {
	identityID, ok := h.identityFromClaims(c)
	if !ok {
		return
	}

	code, ok := h.bindCode(c)
	if !ok {
		return
	}

	if err := h.mfaUseCase.VerifyTOTP(c.Request.Context(), identityID, code); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Status: "verified"})
}

// OTPSendHandler mails a fresh passcode to the identity's address, replacing
// any pending one.
// POST /v1/auth/otp/send - Requires authentication, behind the IP rate limiter.
func (h *MFAHandler) OTPSendHandler(c *gin.Context) {
	identityID, ok := h.identityFromClaims(c)
	if !ok {
		return
	}

	if err := h.mfaUseCase.IssueOTP(c.Request.Context(), identityID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.StatusResponse{Status: "sent"})
}

// OTPVerifyHandler checks a pending passcode. The code is consumed on first
// presentation whether or not it matches.
// POST /v1/auth/otp/verify - Requires authentication, behind the IP rate limiter.
func (h *MFAHandler) OTPVerifyHandler(c *gin.Context) {
	identityID, ok := h.identityFromClaims(c)
	if !ok {
		return
	}

	code, ok := h.bindCode(c)
	if !ok {
		return
	}

	if err := h.mfaUseCase.VerifyOTP(c.Request.Context(), identityID, code); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Status: "verified"})
}

// identityFromClaims resolves the authenticated identity ID or writes a 401.
func (h *MFAHandler) identityFromClaims(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := identityHttp.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}

	identityID, err := claims.IdentityID()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return identityID, true
}

// bindCode parses and validates the code body or writes the error response.
func (h *MFAHandler) bindCode(c *gin.Context) (string, bool) {
	var req dto.VerifyCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return "", false
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return "", false
	}
	return req.Code, true
}
