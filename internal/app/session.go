// Package app wires configuration into a running wallet session.
package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/config"
	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/pace"
	"solana-wallet-lab/internal/refresh"
	"solana-wallet-lab/internal/transfer"
	"solana-wallet-lab/internal/view"
	"solana-wallet-lab/internal/wallet"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	sleeper pace.Sleeper
}

// WithSleeper replaces every simulated and pacing delay.
func WithSleeper(s pace.Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

// Session bundles the connection, view, refresher, sender and notifier of
// one wallet.
type Session struct {
	cfg    *config.Config
	chain  domain.Chain
	logger *zap.Logger
	opts   options

	View      *view.View
	Notifier  *notify.Center
	Wallet    *wallet.Connection
	Refresher *refresh.Refresher
	Sender    *transfer.Sender

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// lifetime of the current connection; cancelled by Disconnect
	connMu     sync.Mutex
	connAddr   string
	connCtx    context.Context
	connCancel context.CancelFunc

	closeMu sync.Mutex
	closers []func() error
	closed  bool
}

// New builds a Session from cfg. ctx bounds construction only; background
// work runs until Close.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		cfg:    cfg,
		chain:  domain.Chain(cfg.Chain),
		logger: logger,
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	store, err := s.openStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	b, err := s.buildBackends(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.View = view.New(s.chain)
	s.Notifier = notify.NewCenter(cfg.NotifyDuration(), logger)
	s.Wallet = wallet.New(wallet.Options{
		Connector: b.connector,
		Store:     store,
		View:      s.View,
		Notifier:  s.Notifier,
		Logger:    logger,
	})
	s.Refresher = refresh.New(refresh.Options{
		Source:   b.source,
		View:     s.View,
		Notifier: s.Notifier,
		Logger:   logger,
		Interval:    cfg.RefreshInterval(),
		Sleeper:     s.opts.sleeper,
		BaseContext: s.connectionContext,
	})
	s.Sender = transfer.NewSender(transfer.Options{
		Chain:      s.chain,
		Transferer: b.transferer,
		Wallet:     s.Wallet,
		Balance:    s.View,
		Refresher:  s.Refresher,
		Notifier:   s.Notifier,
		Logger:     logger,
	})

	logger.Info("session ready",
		zap.String("chain", cfg.Chain),
		zap.String("mode", cfg.Mode),
		zap.String("connector", cfg.Connector),
		zap.String("storage", cfg.Storage.Backend))
	return s, nil
}

func (s *Session) addCloser(fn func() error) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	s.closers = append(s.closers, fn)
}

// Restore reconnects a persisted address and starts the initial refresh.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	ok, err := s.Wallet.Restore(ctx)
	if err != nil || !ok {
		return ok, err
	}
	s.refreshInBackground(s.Wallet.Address())
	return true, nil
}

// Connect runs the handshake and starts the initial refresh.
func (s *Session) Connect(ctx context.Context) (string, error) {
	addr, err := s.Wallet.Connect(ctx)
	if err != nil {
		return "", err
	}
	s.refreshInBackground(addr)
	return addr, nil
}

// Disconnect clears the connection and persisted key and stops refreshes
// still running for the old address.
func (s *Session) Disconnect(ctx context.Context) error {
	addr := s.Wallet.Address()
	err := s.Wallet.Disconnect(ctx)
	s.endConnection()
	if addr != "" {
		s.Refresher.Forget(addr)
	}
	return err
}

// Refresh runs a full refresh synchronously.
func (s *Session) Refresh(ctx context.Context) error {
	addr := s.Wallet.Address()
	if addr == "" {
		return domain.ErrNotConnected
	}
	return s.Refresher.Refresh(ctx, addr)
}

// RefreshTransactions reloads only the history.
func (s *Session) RefreshTransactions(ctx context.Context) error {
	addr := s.Wallet.Address()
	if addr == "" {
		return domain.ErrNotConnected
	}
	return s.Refresher.RefreshTransactions(ctx, addr)
}

// Send runs the send flow.
func (s *Session) Send(ctx context.Context, recipient, amount string) (*transfer.Result, error) {
	return s.Sender.Send(ctx, recipient, amount)
}

// Snapshot returns the current view state.
func (s *Session) Snapshot() view.Snapshot {
	return s.View.Snapshot()
}

// Wait blocks until background refreshes finish.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) refreshInBackground(address string) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.connectionContext(address)
		if err := s.Refresher.Refresh(ctx, address); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("initial refresh incomplete", zap.String("address", address), zap.Error(err))
		}
	}()
}

// connectionContext returns the lifetime of address's connection. It is
// created on first use while the wallet is connected to address; any other
// address gets an already cancelled context.
func (s *Session) connectionContext(address string) context.Context {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.connCtx != nil && s.connAddr == address {
		return s.connCtx
	}
	if address == "" || s.Wallet.Address() != address {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		return ctx
	}
	if s.connCancel != nil {
		s.connCancel()
	}
	s.connCtx, s.connCancel = context.WithCancel(s.ctx)
	s.connAddr = address
	return s.connCtx
}

// endConnection cancels the current connection's context.
func (s *Session) endConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.connCancel != nil {
		s.connCancel()
	}
	s.connAddr, s.connCtx, s.connCancel = "", nil, nil
}

// Close cancels in-flight work, disposes the view and releases backends.
func (s *Session) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closeMu.Unlock()

	s.cancel()
	s.wg.Wait()
	if s.View != nil {
		s.View.Close()
	}

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
