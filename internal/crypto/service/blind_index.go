package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// HMACBlindIndexer implements BlindIndexer using HMAC-SHA256 with a dedicated
// 256-bit key, independent from the field-encryption key. Compromise of the
// index key reveals nothing about field contents, and vice versa.
//
// The digest is deterministic over the normalized input, which is what makes
// equality lookup possible: the same logical email always maps to the same
// indexed column value, without the column ever holding plaintext.
type HMACBlindIndexer struct {
	key []byte
}

// NewHMACBlindIndexer creates a blind indexer. The key must be exactly
// 32 bytes (256 bits).
func NewHMACBlindIndexer(key []byte) (*HMACBlindIndexer, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return &HMACBlindIndexer{key: key}, nil
}

// Normalize canonicalizes a value before indexing: trims surrounding
// whitespace and lower-cases. " Alice@Example.COM " and "alice@example.com"
// are the same logical address and must produce the same digest.
func Normalize(plaintext string) string {
	return strings.ToLower(strings.TrimSpace(plaintext))
}

// Index returns the hex HMAC-SHA256 digest of the normalized plaintext.
// Deterministic and non-reversible; there is no decrypt counterpart.
func (h *HMACBlindIndexer) Index(plaintext string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(Normalize(plaintext)))
	return hex.EncodeToString(mac.Sum(nil))
}
