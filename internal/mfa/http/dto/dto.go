// Package dto provides data transfer objects for the MFA endpoints.
package dto

import (
	"regexp"

	validation "github.com/jellydator/validation"

	mfaDomain "github.com/allisson/identity/internal/mfa/domain"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// VerifyCodeRequest carries a six-digit second factor code.
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Validate checks if the verification request is valid.
func (r *VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			validation.Match(codePattern).Error("must be a 6-digit code"),
		),
	)
}

// TOTPEnrollmentResponse carries the shared secret and otpauth URL the
// authenticator app needs. Returned once, over the enrollment endpoint only.
type TOTPEnrollmentResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// MapEnrollmentToResponse converts a TOTP enrollment to an API response.
func MapEnrollmentToResponse(enrollment *mfaDomain.TOTPEnrollment) TOTPEnrollmentResponse {
	return TOTPEnrollmentResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.OTPAuthURL,
	}
}

// StatusResponse is a minimal acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}
