// Package files holds the key-value backends a session can be persisted to.
package files

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the backend is out of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCorrupt is returned by Get when a stored value cannot be decoded.
	ErrCorrupt = errors.New("stored value is corrupt")
	// ErrInvalidKey is returned for keys that cannot be stored safely.
	ErrInvalidKey = errors.New("invalid key")
)

// Backend is a minimal byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
