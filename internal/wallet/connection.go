// Package wallet implements the connection state machine:
// Disconnected -> Connecting -> Connected -> Disconnected.
package wallet

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/observability"
	"solana-wallet-lab/internal/storage"
	"solana-wallet-lab/internal/view"
)

// ConnectFailedTitle is the notification title of a failed handshake.
const ConnectFailedTitle = "Failed to connect wallet"

var (
	// ErrConnectInProgress is returned when a handshake is already running.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrConnectAborted is returned when Disconnect ran during a handshake.
	ErrConnectAborted = errors.New("connect aborted")
)

// Options for creating a Connection.
type Options struct {
	Connector Connector
	Store     storage.SessionStore
	View      *view.View
	Notifier  notify.Notifier
	Logger    *zap.Logger
}

// Connection owns the connected address and its persisted copy.
type Connection struct {
	connector Connector
	store     storage.SessionStore
	view      *view.View
	notifier  notify.Notifier
	logger    *zap.Logger

	mu      sync.Mutex
	status  domain.ConnectionStatus
	address string
	gen     uint64
}

// New creates a disconnected Connection.
func New(opts Options) *Connection {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Connection{
		connector: opts.Connector,
		store:     opts.Store,
		view:      opts.View,
		notifier:  opts.Notifier,
		logger:    logger.Named("wallet"),
		status:    domain.StatusDisconnected,
	}
	observability.SetConnectionState(c.status.String())
	return c
}

// Status returns the current state and address.
func (c *Connection) Status() (domain.ConnectionStatus, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.address
}

// Address returns the connected address, or "" when not connected.
func (c *Connection) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != domain.StatusConnected {
		return ""
	}
	return c.address
}

// Restore moves straight to Connected when an address was persisted.
// It reports whether a session was restored.
func (c *Connection) Restore(ctx context.Context) (bool, error) {
	address, err := c.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		c.logger.Error("failed to load session", zap.Error(err))
		return false, err
	}

	c.mu.Lock()
	c.setLocked(domain.StatusConnected, address)
	c.mu.Unlock()
	c.publish(domain.StatusConnected, address)
	c.logger.Info("session restored", zap.String("address", address))
	return true, nil
}

// Connect runs the handshake. On success the address is stored in memory
// and persisted; on failure the connection returns to Disconnected and a
// notification is raised.
func (c *Connection) Connect(ctx context.Context) (string, error) {
	c.mu.Lock()
	switch c.status {
	case domain.StatusConnected:
		addr := c.address
		c.mu.Unlock()
		return addr, nil
	case domain.StatusConnecting:
		c.mu.Unlock()
		return "", ErrConnectInProgress
	}
	c.setLocked(domain.StatusConnecting, "")
	gen := c.gen
	c.mu.Unlock()
	c.publish(domain.StatusConnecting, "")

	address, err := c.connector.Connect(ctx)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return "", ErrConnectAborted
	}
	if err != nil {
		c.setLocked(domain.StatusDisconnected, "")
		c.mu.Unlock()
		c.publish(domain.StatusDisconnected, "")
		c.logger.Error("error connecting wallet", zap.Error(err))
		c.notifier.Notify(ConnectFailedTitle, err.Error(), notify.VariantDestructive)
		return "", err
	}
	c.setLocked(domain.StatusConnected, address)
	c.mu.Unlock()
	c.publish(domain.StatusConnected, address)

	if err := c.store.Save(ctx, address); err != nil {
		c.logger.Warn("failed to persist session", zap.String("address", address), zap.Error(err))
	}
	c.logger.Info("wallet connected", zap.String("address", address))
	return address, nil
}

// Disconnect clears the address and the persisted key. It is idempotent
// and aborts a handshake in progress.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.setLocked(domain.StatusDisconnected, "")
	c.mu.Unlock()

	if c.view != nil {
		c.view.Reset()
	}
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("failed to clear session", zap.Error(err))
		return err
	}
	c.logger.Info("wallet disconnected")
	return nil
}

func (c *Connection) setLocked(status domain.ConnectionStatus, address string) {
	c.status = status
	c.address = address
	observability.SetConnectionState(status.String())
}

// publish mirrors the state onto the view. Call without c.mu held: view
// observers run synchronously.
func (c *Connection) publish(status domain.ConnectionStatus, address string) {
	if c.view != nil {
		c.view.SetConnection(status, address)
	}
}
