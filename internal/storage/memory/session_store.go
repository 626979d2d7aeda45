package memory

import (
	"context"
	"sync"

	"solana-wallet-lab/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
type SessionStore struct {
	mu      sync.RWMutex
	address string
	set     bool
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load returns the stored address.
func (s *SessionStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return "", storage.ErrNotFound
	}
	return s.address, nil
}

// Save stores address.
func (s *SessionStore) Save(_ context.Context, address string) error {
	if address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.address = address
	s.set = true
	return nil
}

// Clear removes the stored address.
func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.address = ""
	s.set = false
	return nil
}
