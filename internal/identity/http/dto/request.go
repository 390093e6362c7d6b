// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/identity/internal/validation"
)

// SignUpRequest contains the parameters for direct self-registration.
type SignUpRequest struct {
	Name           string     `json:"name" binding:"required"`
	Email          string     `json:"email" binding:"required"`
	Password       string     `json:"password" binding:"required"`
	Role           string     `json:"role" binding:"required"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	MFAMethod      string     `json:"mfa_method" binding:"required"`
}

// Validate checks if the sign-up request is valid. Role, MFA method, and
// organization constraints are enforced by the use case.
func (r *SignUpRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Email,
			validation.Required,
			appValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required,
		),
		validation.Field(&r.Role,
			validation.Required,
		),
		validation.Field(&r.MFAMethod,
			validation.Required,
		),
	)
}

// SignInRequest contains the parameters for password sign-in. MFACode is
// required only when the identity has an active second factor.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	MFACode  string `json:"mfa_code"`
}

// Validate checks if the sign-in request is valid.
func (r *SignInRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			appValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required,
		),
	)
}

// RefreshRequest contains the refresh token when it is sent in the body
// instead of the HTTP-only cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
