package storage

import "context"

// SessionKey is the single durable key holding the connected wallet address.
const SessionKey = "walletPublicKey"

// SessionStore persists the connected wallet address across restarts.
// It is the only durable state of the application.
type SessionStore interface {
	// Load returns the stored address. Returns ErrNotFound if none is stored.
	Load(ctx context.Context) (string, error)

	// Save stores address, replacing any previous value.
	// Returns ErrInvalidInput for an empty address.
	Save(ctx context.Context, address string) error

	// Clear removes the stored address. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
