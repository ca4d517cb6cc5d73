package store

import (
	"context"
	"sync"
)

// Memory is a process-local gateway used for development and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.docs[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *Memory) Healthy(context.Context) bool { return true }

func (m *Memory) Close() error { return nil }
