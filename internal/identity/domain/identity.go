// Package domain defines the core identity domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// Role is the permission tier of an identity.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleSiteAdmin   Role = "site_admin"
	RoleOperator    Role = "operator"
	RoleClientAdmin Role = "client_admin"
	RoleClientUser  Role = "client_user"
)

// Roles lists every valid role.
var Roles = []Role{RoleSuperAdmin, RoleSiteAdmin, RoleOperator, RoleClientAdmin, RoleClientUser}

// IsValid reports whether the role is one of the known tiers.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleSiteAdmin, RoleOperator, RoleClientAdmin, RoleClientUser:
		return true
	}
	return false
}

// IsClientScoped reports whether the role belongs to a client organization
// and therefore requires an organization ID.
func (r Role) IsClientScoped() bool {
	return r == RoleClientAdmin || r == RoleClientUser
}

func (r Role) String() string {
	return string(r)
}

// MFAMethod selects the second authentication factor for an identity.
type MFAMethod string

const (
	// MFAMethodTOTP uses an authenticator-app time-based code.
	MFAMethodTOTP MFAMethod = "totp"

	// MFAMethodOTP uses a short-lived code delivered by email.
	MFAMethodOTP MFAMethod = "otp"
)

// IsValid reports whether the method is a known second factor.
func (m MFAMethod) IsValid() bool {
	return m == MFAMethodTOTP || m == MFAMethodOTP
}

func (m MFAMethod) String() string {
	return string(m)
}

// Identity represents an account in the system. Name, email, and the TOTP
// secret are stored as authenticated ciphertext; equality lookups by email go
// through the blind index column, which holds a keyed digest rather than
// plaintext.
type Identity struct {
	ID                  uuid.UUID
	NameEncrypted       cryptoDomain.EncryptedValue
	EmailEncrypted      cryptoDomain.EncryptedValue
	EmailBlindIndex     string
	PasswordHash        string
	Role                Role
	OrganizationID      *uuid.UUID
	MFAMethod           MFAMethod
	TOTPSecretEncrypted cryptoDomain.EncryptedValue
	TOTPEnabled         bool
	RefreshTokenHash    *string
	IsVerified          bool
	LastLoginAt         *time.Time
	CreatedBy           *uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MFAEnabled reports whether sign-in requires a second factor. Email OTP is
// always active for identities configured with it; TOTP only after the
// enrollment has been verified.
func (i *Identity) MFAEnabled() bool {
	switch i.MFAMethod {
	case MFAMethodOTP:
		return true
	case MFAMethodTOTP:
		return i.TOTPEnabled
	}
	return false
}
