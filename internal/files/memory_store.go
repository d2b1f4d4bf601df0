package files

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in process memory. A positive quota caps the
// total number of stored bytes.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  map[string][]byte
	quota int
	used  int
}

// NewMemoryBackend returns an empty backend. quota <= 0 means unlimited.
func NewMemoryBackend(quota int) *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte), quota: quota}
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.used - len(b.data[key]) + len(value)
	if b.quota > 0 && next > b.quota {
		return ErrQuotaExceeded
	}
	b.data[key] = append([]byte(nil), value...)
	b.used = next
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used -= len(b.data[key])
	delete(b.data, key)
	return nil
}
