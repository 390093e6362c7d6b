// Package http provides the HTTP endpoints for the invitation lifecycle.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityHttp "github.com/allisson/identity/internal/identity/http"
	"github.com/allisson/identity/internal/identity/service"
	"github.com/allisson/identity/internal/invitation/http/dto"
	invitationUsecase "github.com/allisson/identity/internal/invitation/usecase"
	customValidation "github.com/allisson/identity/internal/validation"
)

// InvitationHandler handles invitation HTTP requests. Issuing and listing
// require authentication; verification and acceptance are public since the
// invitee has no account yet.
type InvitationHandler struct {
	invitationUseCase invitationUsecase.UseCase
	logger            *slog.Logger
}

// NewInvitationHandler creates a new invitation handler with required dependencies.
func NewInvitationHandler(invitationUC invitationUsecase.UseCase, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitationUseCase: invitationUC,
		logger:            logger,
	}
}

// CreateHandler issues an invitation on behalf of the authenticated identity.
// POST /v1/invitations - Requires authentication.
// Returns 201 Created. The single-use code goes to the invitee by mail and is
// absent from the response.
func (h *InvitationHandler) CreateHandler(c *gin.Context) {
	claims, ok := identityHttp.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	inviterID, err := claims.IdentityID()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateInvitationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	invitation, err := h.invitationUseCase.Create(c.Request.Context(), invitationUsecase.CreateInvitationInput{
		InviterID:      inviterID,
		Email:          req.Email,
		Role:           identityDomain.Role(req.Role),
		MFAMethod:      identityDomain.MFAMethod(req.MFAMethod),
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapInvitationToResponse(invitation))
}

// VerifyHandler checks an invitation and code pair before the invitee commits
// to filling in a registration form.
// GET /v1/invitations/verify?invitation_id=...&code=... - Public.
// An unknown ID and a wrong code are indistinguishable in the response.
func (h *InvitationHandler) VerifyHandler(c *gin.Context) {
	invitationID, code, ok := h.parseInvitationQuery(c)
	if !ok {
		return
	}

	invitation, err := h.invitationUseCase.Validate(c.Request.Context(), invitationID, code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapInvitationToResponse(invitation))
}

// AcceptHandler consumes an invitation and registers the invited identity.
// POST /v1/invitations/accept - Public.
// Returns 201 Created with the registered identity.
func (h *InvitationHandler) AcceptHandler(c *gin.Context) {
	var req dto.AcceptInvitationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	identity, err := h.invitationUseCase.Accept(c.Request.Context(), invitationUsecase.AcceptInvitationInput{
		InvitationID: req.InvitationID,
		Code:         req.Code,
		Name:         req.Name,
		Password:     req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIdentityToAcceptedResponse(identity, req.Name))
}

// ListHandler lists invitations with pagination.
// GET /v1/invitations?organization_id=...&limit=...&offset=... - Requires authentication.
// Client-scoped roles always see their own organization; platform roles may
// filter by any organization or list across all of them.
func (h *InvitationHandler) ListHandler(c *gin.Context) {
	claims, ok := identityHttp.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	organizationID, ok := h.resolveOrganizationScope(c, claims)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	invitations, err := h.invitationUseCase.ListByOrganization(c.Request.Context(), organizationID, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.MapInvitationsToResponse(invitations),
		"limit":       limit,
		"offset":      offset,
	})
}

// parseInvitationQuery extracts the invitation ID and code query parameters
// or writes the error response.
func (h *InvitationHandler) parseInvitationQuery(c *gin.Context) (uuid.UUID, string, bool) {
	rawID := c.Query("invitation_id")
	code := c.Query("code")

	if rawID == "" || code == "" {
		httputil.HandleBadRequestGin(c, apperrors.New("invitation_id and code are required"), h.logger)
		return uuid.Nil, "", false
	}

	invitationID, err := uuid.Parse(rawID)
	if err != nil {
		httputil.HandleBadRequestGin(c, apperrors.New("invitation_id must be a valid UUID"), h.logger)
		return uuid.Nil, "", false
	}
	return invitationID, code, true
}

// resolveOrganizationScope decides which organization the list is scoped to.
// Client-scoped roles are pinned to the organization in their claims.
func (h *InvitationHandler) resolveOrganizationScope(c *gin.Context, claims *service.AccessClaims) (*uuid.UUID, bool) {
	if claims.Role.IsClientScoped() {
		if claims.OrganizationID == nil {
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
			return nil, false
		}
		return claims.OrganizationID, true
	}

	rawID := c.Query("organization_id")
	if rawID == "" {
		return nil, true
	}

	organizationID, err := uuid.Parse(rawID)
	if err != nil {
		httputil.HandleBadRequestGin(c, apperrors.New("organization_id must be a valid UUID"), h.logger)
		return nil, false
	}
	return &organizationID, true
}
