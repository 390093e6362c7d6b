package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoService "github.com/allisson/identity/internal/crypto/service"
)

// FieldCipher returns the AES-256-GCM cipher used for PII fields at rest.
func (c *Container) FieldCipher() (cryptoService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		c.fieldCipher, err = c.initFieldCipher()
		if err != nil {
			c.initErrors["fieldCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// BlindIndexer returns the HMAC-SHA256 indexer for equality lookups by email.
func (c *Container) BlindIndexer() (cryptoService.BlindIndexer, error) {
	var err error
	c.blindIndexerInit.Do(func() {
		c.blindIndexer, err = c.initBlindIndexer()
		if err != nil {
			c.initErrors["blindIndexer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blindIndexer"]; exists {
		return nil, storedErr
	}
	return c.blindIndexer, nil
}

// KMSService returns the KMS service used to unwrap key material.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// initFieldCipher loads the field encryption key and builds the cipher.
func (c *Container) initFieldCipher() (cryptoService.FieldCipher, error) {
	key, err := c.loadKey(c.config.FieldEncryptionKey, "FIELD_ENCRYPTION_KEY")
	if err != nil {
		return nil, err
	}
	return cryptoService.NewAESGCMFieldCipher(key)
}

// initBlindIndexer loads the blind index key and builds the indexer. A
// deployment that configures only the field encryption key gets its blind
// index key derived from it, so the two usages stay separated without a
// second secret to manage.
func (c *Container) initBlindIndexer() (cryptoService.BlindIndexer, error) {
	if c.config.BlindIndexKey == "" && c.config.FieldEncryptionKey != "" {
		master, err := c.loadKey(c.config.FieldEncryptionKey, "FIELD_ENCRYPTION_KEY")
		if err != nil {
			return nil, err
		}
		key, err := deriveSubkey(master, "blind-index-v1")
		if err != nil {
			return nil, err
		}
		return cryptoService.NewHMACBlindIndexer(key)
	}

	key, err := c.loadKey(c.config.BlindIndexKey, "BLIND_INDEX_KEY")
	if err != nil {
		return nil, err
	}
	return cryptoService.NewHMACBlindIndexer(key)
}

// deriveSubkey derives a 32-byte subkey from the master field key using
// HKDF-SHA256. The info label separates subkey usages and is versioned for
// future algorithm changes.
func deriveSubkey(master []byte, label string) ([]byte, error) {
	reader := hkdf.New(sha256.New, master, nil, []byte(label))

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s subkey: %w", label, err)
	}
	return key, nil
}

// loadKey decodes a hex-encoded key from configuration. When a KMS key URI is
// configured the decoded bytes are treated as wrapped material and unwrapped
// through the keeper first.
func (c *Container) loadKey(hexValue, name string) ([]byte, error) {
	if hexValue == "" {
		return nil, fmt.Errorf("%s is not set", name)
	}

	key, err := hex.DecodeString(hexValue)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", name, err)
	}

	if c.config.KMSKeyURI == "" {
		return key, nil
	}

	ctx := context.Background()
	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper for %s: %w", name, err)
	}
	defer func() { _ = keeper.Close() }()

	unwrapped, err := keeper.Decrypt(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap %s: %w", name, err)
	}
	return unwrapped, nil
}
