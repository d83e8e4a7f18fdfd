package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryKV is a process-local KV used in tests and in single-instance runs
// without Redis. Expired entries are dropped lazily on read.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]time.Time)}
}

func (m *MemoryKV) SetNX(_ context.Context, key string, _ []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.entries[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	m.entries[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(m.entries, key)
		return false, nil
	}
	return true, nil
}
