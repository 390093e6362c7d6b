// Package domain defines the invitation domain entities and the role-grant
// permission rules.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// CodeLength is the length of the invitation code sent by mail.
const CodeLength = 8

// Status is the lifecycle state of an invitation.
type Status string

const (
	// StatusPending means the invitation can still be accepted.
	StatusPending Status = "pending"

	// StatusAccepted means the invitation was consumed by a registration.
	StatusAccepted Status = "accepted"

	// StatusExpired means the expiry passed before acceptance.
	StatusExpired Status = "expired"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusExpired
}

func (s Status) String() string {
	return string(s)
}

// Invitation represents a single-use, expiring offer to register with a
// preassigned role. The invitee's email is stored encrypted with a blind
// index for duplicate detection; the (ID, Code) pair is what the invitee
// presents back.
type Invitation struct {
	ID                 uuid.UUID
	EmailEncrypted     cryptoDomain.EncryptedValue
	EmailBlindIndex    string
	Code               string
	Role               identityDomain.Role
	MFAMethod          identityDomain.MFAMethod
	OrganizationID     *uuid.UUID
	Status             Status
	CreatedBy          uuid.UUID
	ExpiresAt          time.Time
	AcceptedAt         *time.Time
	AcceptedIdentityID *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsExpired reports whether the expiry passed, regardless of stored status.
// Expiry is enforced lazily: rows flip to StatusExpired when they are next
// read or swept, so the clock decides, not the column.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// grantTable maps an inviter role to the roles it may hand out. No tier can
// grant super_admin; it exists only through direct provisioning.
var grantTable = map[identityDomain.Role][]identityDomain.Role{
	identityDomain.RoleSuperAdmin: {
		identityDomain.RoleSiteAdmin,
		identityDomain.RoleOperator,
		identityDomain.RoleClientAdmin,
		identityDomain.RoleClientUser,
	},
	identityDomain.RoleSiteAdmin: {
		identityDomain.RoleSiteAdmin,
		identityDomain.RoleOperator,
		identityDomain.RoleClientAdmin,
		identityDomain.RoleClientUser,
	},
	identityDomain.RoleOperator: {
		identityDomain.RoleSiteAdmin,
		identityDomain.RoleOperator,
		identityDomain.RoleClientAdmin,
		identityDomain.RoleClientUser,
	},
	identityDomain.RoleClientAdmin: {
		identityDomain.RoleClientUser,
	},
}

// CanGrant reports whether an identity with inviterRole may invite someone
// into targetRole.
func CanGrant(inviterRole, targetRole identityDomain.Role) bool {
	for _, allowed := range grantTable[inviterRole] {
		if allowed == targetRole {
			return true
		}
	}
	return false
}
