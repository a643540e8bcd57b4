package history

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory. State is lost on restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Name implements Backend.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// Load implements Backend.
func (b *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrStateNotFound
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	return nil
}
