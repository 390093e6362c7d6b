// Package dto provides data transfer objects for the invitation endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/invitation/domain"
	appValidation "github.com/allisson/identity/internal/validation"
)

// CreateInvitationRequest contains the parameters for issuing an invitation.
type CreateInvitationRequest struct {
	Email          string     `json:"email" binding:"required"`
	Role           string     `json:"role" binding:"required"`
	MFAMethod      string     `json:"mfa_method" binding:"required"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// Validate checks if the create invitation request is valid. Role grants and
// organization constraints are enforced by the use case.
func (r *CreateInvitationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			appValidation.Email,
		),
		validation.Field(&r.Role,
			validation.Required,
		),
		validation.Field(&r.MFAMethod,
			validation.Required,
		),
	)
}

// AcceptInvitationRequest contains the parameters for accepting an invitation
// and registering the invited identity.
type AcceptInvitationRequest struct {
	InvitationID uuid.UUID `json:"invitation_id" binding:"required"`
	Code         string    `json:"code" binding:"required"`
	Name         string    `json:"name" binding:"required"`
	Password     string    `json:"password" binding:"required"`
}

// Validate checks if the accept invitation request is valid.
func (r *AcceptInvitationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			appValidation.NotBlank,
		),
		validation.Field(&r.Name,
			validation.Required,
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
		),
	)
}

// InvitationResponse represents an invitation. The single-use code and the
// invitee address never appear here; both travel only in the invitation mail.
type InvitationResponse struct {
	ID             string     `json:"id"`
	Role           string     `json:"role"`
	MFAMethod      string     `json:"mfa_method"`
	OrganizationID *string    `json:"organization_id,omitempty"`
	Status         string     `json:"status"`
	CreatedBy      string     `json:"created_by"`
	ExpiresAt      time.Time  `json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MapInvitationToResponse converts a domain invitation to an API response.
func MapInvitationToResponse(invitation *domain.Invitation) InvitationResponse {
	response := InvitationResponse{
		ID:         invitation.ID.String(),
		Role:       invitation.Role.String(),
		MFAMethod:  string(invitation.MFAMethod),
		Status:     invitation.Status.String(),
		CreatedBy:  invitation.CreatedBy.String(),
		ExpiresAt:  invitation.ExpiresAt,
		AcceptedAt: invitation.AcceptedAt,
		CreatedAt:  invitation.CreatedAt,
	}
	if invitation.OrganizationID != nil {
		orgID := invitation.OrganizationID.String()
		response.OrganizationID = &orgID
	}
	return response
}

// MapInvitationsToResponse converts a list of invitations to API responses.
func MapInvitationsToResponse(invitations []*domain.Invitation) []InvitationResponse {
	responses := make([]InvitationResponse, 0, len(invitations))
	for _, invitation := range invitations {
		responses = append(responses, MapInvitationToResponse(invitation))
	}
	return responses
}

// AcceptedIdentityResponse represents the identity registered by accepting an
// invitation. Name comes from the request; the email stays with the
// invitation mail.
type AcceptedIdentityResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
	MFAMethod      string  `json:"mfa_method"`
	IsVerified     bool    `json:"is_verified"`
}

// MapIdentityToAcceptedResponse converts the registered identity to an API
// response using the plaintext name from the request.
func MapIdentityToAcceptedResponse(identity *identityDomain.Identity, name string) AcceptedIdentityResponse {
	response := AcceptedIdentityResponse{
		ID:         identity.ID.String(),
		Name:       name,
		Role:       identity.Role.String(),
		MFAMethod:  string(identity.MFAMethod),
		IsVerified: identity.IsVerified,
	}
	if identity.OrganizationID != nil {
		orgID := identity.OrganizationID.String()
		response.OrganizationID = &orgID
	}
	return response
}
