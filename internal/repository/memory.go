package repository

import (
	"context"
	"sync"
)

// MemoryKV keeps blobs in a map. State is lost on restart.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

var _ KV = (*MemoryKV)(nil)

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.rlock()
	defer m.runlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.wlock()
	defer m.wunlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.wlock()
	defer m.wunlock()
	if _, ok := m.data[key]; !ok {
		return ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close(context.Context) error { return nil }

// Keys returns the stored keys in no particular order.
func (m *MemoryKV) Keys() []string {
	m.rlock()
	defer m.runlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}

func (m *MemoryKV) rlock()   { m.mu.RLock() }
func (m *MemoryKV) runlock() { m.mu.RUnlock() }
func (m *MemoryKV) wlock()   { m.mu.Lock() }
func (m *MemoryKV) wunlock() { m.mu.Unlock() }
