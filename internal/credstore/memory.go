package credstore

import (
	"context"
	"sync"
)

// MemoryStore is a volatile Store used by tests and the "memory" driver.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials

	// FailSave, when set, is returned by Save without modifying state.
	FailSave error
	// Saves counts successful Save calls.
	Saves int
}

// NewMemoryStore returns a store preloaded with c.
func NewMemoryStore(c Credentials) *MemoryStore {
	return &MemoryStore{creds: c}
}

func (m *MemoryStore) Load(_ context.Context) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(_ context.Context, c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.creds = c
	m.Saves++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
