package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"
)

// AESGCMFieldCipher implements FieldCipher using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// AES-GCM provides authenticated encryption: confidentiality from AES plus
// tamper detection from GMAC. A flipped byte anywhere in the nonce, the
// ciphertext, or the appended tag fails authentication instead of producing
// garbage plaintext.
//
// Security properties:
//   - 256-bit key size
//   - 12-byte nonce (96 bits, randomly generated per encryption)
//   - 16-byte authentication tag (128 bits, appended to ciphertext)
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from multiple
//	goroutines. Each encryption operation generates a unique nonce independently.
type AESGCMFieldCipher struct {
	aead cipher.AEAD
}

// NewAESGCMFieldCipher creates a new AES-256-GCM field cipher.
//
// The key must be exactly 32 bytes (256 bits) and should come from
// crypto/rand (or a KMS unwrap), never from a password.
func NewAESGCMFieldCipher(key []byte) (*AESGCMFieldCipher, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMFieldCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext with a unique random 12-byte nonce.
//
// The nonce must be stored alongside the ciphertext for later decryption;
// EncryptedValue carries both. With GCM it is critical that nonces are never
// reused with the same key, which is why they come from crypto/rand per call.
func (a *AESGCMFieldCipher) Encrypt(plaintext []byte) (cryptoDomain.EncryptedValue, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return cryptoDomain.EncryptedValue{}, apperrors.Wrap(err, "failed to generate nonce")
	}

	ciphertext := a.aead.Seal(nil, nonce, plaintext, nil)
	return cryptoDomain.EncryptedValue{Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt authenticates and decrypts the value.
//
// The authentication tag is verified before any plaintext is returned. On
// verification failure the result is domain.ErrIntegrity with no plaintext.
// Callers must treat this as tamper or key mismatch, never retry it.
func (a *AESGCMFieldCipher) Decrypt(value cryptoDomain.EncryptedValue) ([]byte, error) {
	if len(value.Nonce) != a.aead.NonceSize() {
		return nil, cryptoDomain.ErrIntegrity
	}

	plaintext, err := a.aead.Open(nil, value.Nonce, value.Ciphertext, nil)
	if err != nil {
		return nil, cryptoDomain.ErrIntegrity
	}
	return plaintext, nil
}
