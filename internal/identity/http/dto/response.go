package dto

import (
	"time"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityUsecase "github.com/allisson/identity/internal/identity/usecase"
)

// SignUpResponse represents a freshly registered identity. The email comes
// from the request, not from decrypting the stored row.
type SignUpResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
	MFAMethod      string  `json:"mfa_method"`
	IsVerified     bool    `json:"is_verified"`
}

// MapIdentityToSignUpResponse converts a domain identity to a sign-up
// response using the plaintext fields from the request.
func MapIdentityToSignUpResponse(identity *identityDomain.Identity, name, email string) SignUpResponse {
	response := SignUpResponse{
		ID:         identity.ID.String(),
		Name:       name,
		Email:      email,
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

// SessionResponse represents an issued access token. The refresh token
// travels only in the HTTP-only cookie.
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MapSessionToResponse converts an issued session to an API response,
// excluding the refresh token.
func MapSessionToResponse(session *identityUsecase.Session) SessionResponse {
	return SessionResponse{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresIn:   session.ExpiresIn,
	}
}

// MFARequiredResponse tells the client the password checked out but a
// second factor code must be presented to finish signing in.
type MFARequiredResponse struct {
	Error     string `json:"error"`
	MFAMethod string `json:"mfa_method"`
	Message   string `json:"message"`
}

// ProfileResponse represents the decrypted profile of an identity.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	OrganizationID *string    `json:"organization_id,omitempty"`
	MFAMethod      string     `json:"mfa_method"`
	TOTPEnabled    bool       `json:"totp_enabled"`
	IsVerified     bool       `json:"is_verified"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MapProfileToResponse converts a decrypted profile to an API response.
func MapProfileToResponse(profile *identityUsecase.Profile) ProfileResponse {
	response := ProfileResponse{
		ID:          profile.ID.String(),
		Name:        profile.Name,
		Email:       profile.Email,
		Role:        profile.Role.String(),
		MFAMethod:   string(profile.MFAMethod),
		TOTPEnabled: profile.TOTPEnabled,
		IsVerified:  profile.IsVerified,
		LastLoginAt: profile.LastLoginAt,
		CreatedAt:   profile.CreatedAt,
	}
	if profile.OrganizationID != nil {
		orgID := profile.OrganizationID.String()
		response.OrganizationID = &orgID
	}
	return response
}
