// Package service implements the searchable-encryption engine: an AES-256-GCM
// field cipher for PII at rest and an HMAC-SHA256 blind index for equality
// lookups over encrypted fields.
package service

import (
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// FieldCipher encrypts and decrypts individual sensitive fields.
type FieldCipher interface {
	// Encrypt encrypts plaintext with a fresh random nonce.
	Encrypt(plaintext []byte) (cryptoDomain.EncryptedValue, error)

	// Decrypt authenticates and decrypts the value. Returns
	// domain.ErrIntegrity if the authentication tag does not verify;
	// corrupted plaintext is never returned.
	Decrypt(value cryptoDomain.EncryptedValue) ([]byte, error)
}

// BlindIndexer produces deterministic, non-reversible digests of normalized
// plaintext for equality lookup. There is no decrypt counterpart.
type BlindIndexer interface {
	// Index returns the hex HMAC digest of the normalized plaintext.
	Index(plaintext string) string
}
