// Package domain defines the multi-factor authentication domain types.
package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Domain-specific errors for MFA operations.
var (
	// ErrTOTPNotEnrolled indicates the identity has no TOTP secret yet.
	ErrTOTPNotEnrolled = errors.Wrap(errors.ErrConflict, "totp not enrolled")

	// ErrTOTPNotConfigured indicates the identity does not use the TOTP method.
	ErrTOTPNotConfigured = errors.Wrap(errors.ErrConflict, "totp not configured for identity")

	// ErrOTPNotConfigured indicates the identity does not use the email OTP method.
	ErrOTPNotConfigured = errors.Wrap(errors.ErrConflict, "email otp not configured for identity")

	// ErrInvalidMFACode indicates the presented code did not verify.
	ErrInvalidMFACode = errors.Wrap(errors.ErrUnauthorized, "invalid mfa code")

	// ErrOTPNotFound indicates no pending passcode exists, either because none
	// was issued or because it expired or was already consumed.
	ErrOTPNotFound = errors.Wrap(errors.ErrUnauthorized, "otp not found or expired")
)

// TOTPEnrollment is the material returned on enrollment: the shared secret
// and the otpauth URL an authenticator app can scan.
type TOTPEnrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}
