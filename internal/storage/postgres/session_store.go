package postgres

import (
	"context"

	"solana-wallet-lab/internal/storage"
)

// SessionStore is a PostgreSQL implementation of storage.SessionStore.
// It keeps a single row in wallet_session keyed by storage.SessionKey.
type SessionStore struct {
	pool *Pool
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new PostgreSQL session store.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Load returns the stored address.
func (s *SessionStore) Load(ctx context.Context) (string, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT value
		FROM wallet_session
		WHERE key = $1
	`, storage.SessionKey)

	var address string
	if err := row.Scan(&address); err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return address, nil
}

// Save stores address with an upsert.
func (s *SessionStore) Save(ctx context.Context, address string) error {
	if address == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_session (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`, storage.SessionKey, address)
	return err
}

// Clear removes the stored address.
func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM wallet_session WHERE key = $1`, storage.SessionKey)
	return err
}
