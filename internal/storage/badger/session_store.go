// Package badger provides an embedded on-disk session store.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"solana-wallet-lab/internal/storage"
)

var sessionKey = []byte(storage.SessionKey)

// SessionStore is a Badger implementation of storage.SessionStore.
type SessionStore struct {
	db *badger.DB
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Open opens (or creates) a store at dir. An empty dir opens an in-memory
// database.
func Open(dir string, logger *zap.Logger) (*SessionStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(&zapLogger{logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &SessionStore{db: db}, nil
}

// Close closes the database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Load returns the stored address.
func (s *SessionStore) Load(_ context.Context) (string, error) {
	var address string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			address = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return address, nil
}

// Save stores address.
func (s *SessionStore) Save(_ context.Context, address string) error {
	if address == "" {
		return storage.ErrInvalidInput
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, []byte(address))
	})
}

// Clear removes the stored address.
func (s *SessionStore) Clear(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey)
	})
}

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	*zap.SugaredLogger
}

func (l *zapLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
