package state

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential for the life of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemory() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Token(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ TokenStore = (*MemoryStore)(nil)
