package files

import (
	"context"
	"fmt"

	"phonelogin/internal/crypto"
)

// SealedBackend encrypts values before handing them to the wrapped backend.
type SealedBackend struct {
	next Backend
	key  []byte
}

// NewSealedBackend derives the sealing key from master and binding.
func NewSealedBackend(next Backend, master []byte, binding string) (*SealedBackend, error) {
	key, err := crypto.DeriveSessionKey(master, binding)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &SealedBackend{next: next, key: key}, nil
}

func (b *SealedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := b.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := crypto.Open(b.key, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plain, nil
}

func (b *SealedBackend) Set(ctx context.Context, key string, value []byte) error {
	blob, err := crypto.Seal(b.key, value)
	if err != nil {
		return err
	}
	return b.next.Set(ctx, key, blob)
}

func (b *SealedBackend) Delete(ctx context.Context, key string) error {
	return b.next.Delete(ctx, key)
}
