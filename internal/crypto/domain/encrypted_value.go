// Package domain defines the searchable-encryption domain types.
//
// Sensitive identity fields (email, name, TOTP secret) are stored as
// authenticated ciphertext; equality lookups go through a separate keyed
// blind index so that no plaintext PII ever reaches a query.
package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// EncryptedValue is an authenticated-encrypted field: a random per-encryption
// nonce plus the ciphertext with the 16-byte GCM tag appended. Both parts are
// required for decryption; tampering with either fails authentication.
type EncryptedValue struct {
	Nonce      []byte
	Ciphertext []byte
}

// IsZero reports whether the value holds no ciphertext.
func (v EncryptedValue) IsZero() bool {
	return len(v.Nonce) == 0 && len(v.Ciphertext) == 0
}

// Encode serializes the value as "<nonce-hex>:<ciphertext-hex>" for storage
// in a text column.
func (v EncryptedValue) Encode() string {
	if v.IsZero() {
		return ""
	}
	return hex.EncodeToString(v.Nonce) + ":" + hex.EncodeToString(v.Ciphertext)
}

// DecodeEncryptedValue parses the storage representation produced by Encode.
func DecodeEncryptedValue(s string) (EncryptedValue, error) {
	if s == "" {
		return EncryptedValue{}, nil
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return EncryptedValue{}, fmt.Errorf("malformed encrypted value: %w", ErrIntegrity)
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return EncryptedValue{}, fmt.Errorf("malformed nonce: %w", ErrIntegrity)
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return EncryptedValue{}, fmt.Errorf("malformed ciphertext: %w", ErrIntegrity)
	}

	if len(nonce) != NonceSize {
		return EncryptedValue{}, fmt.Errorf("invalid nonce size %d: %w", len(nonce), ErrIntegrity)
	}

	return EncryptedValue{Nonce: nonce, Ciphertext: ciphertext}, nil
}
