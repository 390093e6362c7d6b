package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	apperrors "github.com/allisson/identity/internal/errors"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewAESGCMFieldCipher(t *testing.T) {
	t.Run("ValidKey", func(t *testing.T) {
		cipher, err := NewAESGCMFieldCipher(testKey(t))
		assert.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("InvalidKeySizes", func(t *testing.T) {
		for _, size := range []int{0, 16, 24, 31, 33, 64} {
			_, err := NewAESGCMFieldCipher(make([]byte, size))
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize, "key size %d", size)
		}
	})
}

func TestAESGCMFieldCipher_EncryptDecrypt(t *testing.T) {
	cipher, err := NewAESGCMFieldCipher(testKey(t))
	require.NoError(t, err)

	plaintexts := [][]byte{
		[]byte("alice@example.com"),
		[]byte("JBSWY3DPEHPK3PXP"),
		[]byte(""),
		[]byte("unicode: žluťoučký kůň"),
		make([]byte, 4096),
	}

	for _, plaintext := range plaintexts {
		value, err := cipher.Encrypt(plaintext)
		require.NoError(t, err)
		assert.Len(t, value.Nonce, cryptoDomain.NonceSize)
		// ciphertext carries the 16-byte GCM tag
		assert.Len(t, value.Ciphertext, len(plaintext)+16)

		decrypted, err := cipher.Decrypt(value)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestAESGCMFieldCipher_NonceUniqueness(t *testing.T) {
	cipher, err := NewAESGCMFieldCipher(testKey(t))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		value, err := cipher.Encrypt([]byte("same plaintext"))
		require.NoError(t, err)
		assert.False(t, seen[string(value.Nonce)], "nonce reused")
		seen[string(value.Nonce)] = true
	}
}

func TestAESGCMFieldCipher_TamperDetection(t *testing.T) {
	cipher, err := NewAESGCMFieldCipher(testKey(t))
	require.NoError(t, err)

	value, err := cipher.Encrypt([]byte("alice@example.com"))
	require.NoError(t, err)

	t.Run("TamperedCiphertextAndTag", func(t *testing.T) {
		// every byte, covering the encrypted payload and the appended tag
		for i := range value.Ciphertext {
			tampered := cryptoDomain.EncryptedValue{
				Nonce:      value.Nonce,
				Ciphertext: append([]byte(nil), value.Ciphertext...),
			}
			tampered.Ciphertext[i] ^= 0x01

			plaintext, err := cipher.Decrypt(tampered)
			assert.ErrorIs(t, err, cryptoDomain.ErrIntegrity, "byte %d", i)
			assert.Nil(t, plaintext)
		}
	})

	t.Run("TamperedNonce", func(t *testing.T) {
		for i := range value.Nonce {
			tampered := cryptoDomain.EncryptedValue{
				Nonce:      append([]byte(nil), value.Nonce...),
				Ciphertext: value.Ciphertext,
			}
			tampered.Nonce[i] ^= 0x01

			plaintext, err := cipher.Decrypt(tampered)
			assert.ErrorIs(t, err, cryptoDomain.ErrIntegrity, "byte %d", i)
			assert.Nil(t, plaintext)
		}
	})

	t.Run("TruncatedNonce", func(t *testing.T) {
		truncated := cryptoDomain.EncryptedValue{
			Nonce:      value.Nonce[:8],
			Ciphertext: value.Ciphertext,
		}
		_, err := cipher.Decrypt(truncated)
		assert.ErrorIs(t, err, cryptoDomain.ErrIntegrity)
	})

	t.Run("WrongKey", func(t *testing.T) {
		other, err := NewAESGCMFieldCipher(testKey(t))
		require.NoError(t, err)

		plaintext, err := other.Decrypt(value)
		assert.ErrorIs(t, err, cryptoDomain.ErrIntegrity)
		assert.ErrorIs(t, err, apperrors.ErrIntegrity)
		assert.Nil(t, plaintext)
	})
}
