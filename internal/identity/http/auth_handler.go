package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/identity/http/dto"
	identityUsecase "github.com/allisson/identity/internal/identity/usecase"
	mfaUsecase "github.com/allisson/identity/internal/mfa/usecase"
	customValidation "github.com/allisson/identity/internal/validation"
)

// refreshTokenCookie is the HTTP-only cookie carrying the refresh token.
// Scoped to the auth endpoints so it never travels with other requests.
const refreshTokenCookie = "refresh_token"

const refreshCookiePath = "/v1/auth"

// AuthHandler handles sign-up, sign-in, session rotation, and logout.
// Sign-in completes the full credential check: password first, then the
// identity's second factor when one is active.
type AuthHandler struct {
	identityUseCase identityUsecase.UseCase
	mfaUseCase      mfaUsecase.UseCase
	logger          *slog.Logger
	refreshTokenTTL time.Duration
	secureCookie    bool
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(
	identityUC identityUsecase.UseCase,
	mfaUC mfaUsecase.UseCase,
	logger *slog.Logger,
	refreshTokenTTL time.Duration,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		identityUseCase: identityUC,
		mfaUseCase:      mfaUC,
		logger:          logger,
		refreshTokenTTL: refreshTokenTTL,
		secureCookie:    secureCookie,
	}
}

// SignUpHandler registers a new identity.
// POST /v1/auth/signup - Public.
// Returns 201 Created. The identity starts unverified; verification runs
// through the MFA endpoints afterwards.
func (h *AuthHandler) SignUpHandler(c *gin.Context) {
	var req dto.SignUpRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	identity, err := h.identityUseCase.Register(c.Request.Context(), identityUsecase.RegisterIdentityInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           identityDomain.Role(req.Role),
		OrganizationID: req.OrganizationID,
		MFAMethod:      identityDomain.MFAMethod(req.MFAMethod),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIdentityToSignUpResponse(identity, req.Name, req.Email))
}

// SignInHandler authenticates an identity and issues a session.
// POST /v1/auth/signin - Public, behind the IP rate limiter.
// Returns 200 OK with the access token in the body and the refresh token in
// an HTTP-only cookie. When a second factor is active and no code was sent,
// responds 401 mfa_required; for the otp method a fresh code is mailed first.
func (h *AuthHandler) SignInHandler(c *gin.Context) {
	var req dto.SignInRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	identity, err := h.identityUseCase.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if identity.MFAEnabled() {
		if req.MFACode == "" {
			h.respondMFARequired(c, identity)
			return
		}

		if err := h.verifySecondFactor(c, identity, req.MFACode); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
	}

	session, err := h.identityUseCase.IssueSession(c.Request.Context(), identity.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, dto.MapSessionToResponse(session))
}

// RefreshHandler rotates the refresh token and issues a new session.
// POST /v1/auth/refresh - Public, behind the IP rate limiter.
// Accepts the refresh token from the request body or the cookie.
// Returns 200 OK with a new access token and a new refresh cookie.
func (h *AuthHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshRequest

	// body is optional, the cookie is the usual carrier
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
			refreshToken = cookie
		}
	}
	if refreshToken == "" {
		httputil.HandleErrorGin(c, identityDomain.ErrInvalidSession, h.logger)
		return
	}

	session, err := h.identityUseCase.RotateSession(c.Request.Context(), refreshToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, dto.MapSessionToResponse(session))
}

// LogoutHandler revokes the current session.
// POST /v1/auth/logout - Requires authentication.
// Returns 204 No Content and clears the refresh cookie. Idempotent.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	identityID, err := claims.IdentityID()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.identityUseCase.RevokeSession(c.Request.Context(), identityID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.clearRefreshCookie(c)
	c.Data(http.StatusNoContent, "application/json", nil)
}

// MeHandler returns the decrypted profile of the authenticated identity.
// GET /v1/identities/me - Requires authentication.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	identityID, err := claims.IdentityID()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	profile, err := h.identityUseCase.Get(c.Request.Context(), identityID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// respondMFARequired answers a password-valid sign-in that still needs a
// second factor code. For the otp method a fresh code is mailed before
// responding, so the client can prompt right away.
func (h *AuthHandler) respondMFARequired(c *gin.Context, identity *identityDomain.Identity) {
	message := "a second factor code is required"

	if identity.MFAMethod == identityDomain.MFAMethodOTP {
		if err := h.mfaUseCase.IssueOTP(c.Request.Context(), identity.ID); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		message = "a verification code has been sent to your email"
	}

	c.JSON(http.StatusUnauthorized, dto.MFARequiredResponse{
		Error:     "mfa_required",
		MFAMethod: string(identity.MFAMethod),
		Message:   message,
	})
}

// verifySecondFactor checks the presented code against the identity's
// active factor.
func (h *AuthHandler) verifySecondFactor(c *gin.Context, identity *identityDomain.Identity, code string) error {
	switch identity.MFAMethod {
	case identityDomain.MFAMethodTOTP:
		return h.mfaUseCase.VerifyTOTP(c.Request.Context(), identity.ID, code)
	case identityDomain.MFAMethodOTP:
		return h.mfaUseCase.VerifyOTP(c.Request.Context(), identity.ID, code)
	default:
		return identityDomain.ErrInvalidMFAMethod
	}
}

// setRefreshCookie attaches the refresh token as an HTTP-only cookie scoped
// to the auth endpoints.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		refreshTokenCookie,
		refreshToken,
		int(h.refreshTokenTTL.Seconds()),
		refreshCookiePath,
		"",
		h.secureCookie,
		true,
	)
}

// clearRefreshCookie expires the refresh cookie.
func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, "", -1, refreshCookiePath, "", h.secureCookie, true)
}
