package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Domain-specific errors for identity operations.
var (
	// ErrIdentityNotFound indicates the requested identity does not exist.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")

	// ErrIdentityAlreadyExists indicates an identity with the same email already exists.
	ErrIdentityAlreadyExists = errors.Wrap(errors.ErrConflict, "identity already exists")

	// ErrInvalidCredentials indicates the email or password did not match.
	// Deliberately covers both cases so responses cannot be used to
	// enumerate registered emails.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidSession indicates the refresh token is unknown, expired, or
	// was already rotated or revoked.
	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session")

	// ErrMFARequired indicates the password checked out but a second factor
	// code must still be presented to finish signing in.
	ErrMFARequired = errors.Wrap(errors.ErrUnauthorized, "mfa verification required")

	// ErrInvalidRole indicates the role is not a known tier.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")

	// ErrInvalidMFAMethod indicates the MFA method is not a known second factor.
	ErrInvalidMFAMethod = errors.Wrap(errors.ErrInvalidInput, "invalid mfa method")

	// ErrOrganizationRequired indicates a client-scoped role without an organization.
	ErrOrganizationRequired = errors.Wrap(errors.ErrInvalidInput, "organization is required for client roles")
)
