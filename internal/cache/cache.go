// Package cache provides a small TTL key-value store used for short-lived
// state such as pending email one-time passwords.
package cache

import (
	"context"
	"time"

	apperrors "github.com/allisson/identity/internal/errors"
)

// ErrKeyNotFound is returned when a key is absent or its TTL has elapsed.
var ErrKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "cache key not found")

// Cache is a TTL key-value store.
type Cache interface {
	// Set stores value under key with the given time to live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrKeyNotFound if absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// GetDel atomically returns and removes the value for key, or
	// ErrKeyNotFound if absent or expired. At most one concurrent caller
	// observes the value.
	GetDel(ctx context.Context, key string) (string, error)
}
