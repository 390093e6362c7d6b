package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Domain-specific errors for invitation operations.
var (
	// ErrInvitationNotFound indicates no invitation matches the presented
	// ID and code pair. Covers unknown IDs and wrong codes alike.
	ErrInvitationNotFound = errors.Wrap(errors.ErrNotFound, "invitation not found")

	// ErrInvitationExpired indicates the invitation expired before acceptance.
	ErrInvitationExpired = errors.Wrap(errors.ErrConflict, "invitation expired")

	// ErrInvitationAlreadyUsed indicates the invitation was already accepted.
	ErrInvitationAlreadyUsed = errors.Wrap(errors.ErrConflict, "invitation already used")

	// ErrInvitationAlreadySent indicates a pending invitation for the same
	// email already exists.
	ErrInvitationAlreadySent = errors.Wrap(errors.ErrConflict, "invitation already sent")

	// ErrRoleNotGrantable indicates the inviter's role may not hand out the
	// requested role.
	ErrRoleNotGrantable = errors.Wrap(errors.ErrForbidden, "role not grantable by inviter")
)
