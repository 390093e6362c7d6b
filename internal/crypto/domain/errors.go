package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Searchable-encryption error definitions.
var (
	// ErrIntegrity indicates authentication of a ciphertext failed: the data
	// was tampered with, truncated, or decrypted with the wrong key. This is
	// a hard failure and is never retried. Callers log it at error level so
	// monitoring can distinguish tamper events from ordinary bugs.
	//
	// HTTP Status: 500 Internal Server Error (no detail disclosed)
	ErrIntegrity = errors.Wrap(errors.ErrIntegrity, "field decryption failed")

	// ErrInvalidKeySize indicates a field-encryption or blind-index key is not
	// exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")
)
