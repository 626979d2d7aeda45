// Package refresh runs the wallet's sequential, paced data refresh.
//
// A full refresh reads balance and tokens, waits, reads NFTs, waits, then
// reads recent transactions. A failing step is logged, surfaced as a
// notification and recorded on the view; later steps still run.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/observability"
	"solana-wallet-lab/internal/pace"
	"solana-wallet-lab/internal/source"
	"solana-wallet-lab/internal/view"
)

// RetryLater is the description attached to every failed-step notification.
const RetryLater = "Please try again later"

// Notification titles per step.
const (
	TitleBalanceFailed      = "Failed to fetch balance and tokens"
	TitleNFTsFailed         = "Failed to fetch NFTs"
	TitleTransactionsFailed = "Failed to fetch transactions"
)

var stepTitles = map[view.Step]string{
	view.StepBalance:      TitleBalanceFailed,
	view.StepNFTs:         TitleNFTsFailed,
	view.StepTransactions: TitleTransactionsFailed,
}

// Options for creating a Refresher.
type Options struct {
	Source   source.Source
	View     *view.View
	Notifier notify.Notifier
	Logger   *zap.Logger

	// Interval between steps. Zero uses pace.DefaultInterval.
	Interval time.Duration
	// Sleeper replaces the pacing delay, mainly for tests.
	Sleeper pace.Sleeper

	// BaseContext returns the lifetime of refreshes for address, typically
	// the current connection. Shared and caller-started sequences stop when
	// it ends. Nil means context.Background.
	BaseContext func(address string) context.Context
}

// Refresher orchestrates refresh sequences against a view.
type Refresher struct {
	source   source.Source
	view     *view.View
	notifier notify.Notifier
	logger   *zap.Logger
	interval time.Duration
	sleep    pace.Sleeper
	base     func(string) context.Context

	full singleflight.Group
}

// New creates a Refresher.
func New(opts Options) *Refresher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = pace.DefaultInterval
	}
	base := opts.BaseContext
	if base == nil {
		base = func(string) context.Context { return context.Background() }
	}
	return &Refresher{
		source:   opts.Source,
		view:     opts.View,
		notifier: opts.Notifier,
		logger:   logger.Named("refresh"),
		interval: interval,
		sleep:    pace.OrDefault(opts.Sleeper),
		base:     base,
	}
}

// Refresh runs the full sequence for address. Concurrent calls for the
// same address join the sequence already in flight. The sequence runs on
// the address's base context, so a caller that gives up does not stop it
// for the others. An empty address is a no-op. The returned error joins
// the failures of individual steps; the view keeps whatever succeeded.
func (r *Refresher) Refresh(ctx context.Context, address string) error {
	if address == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := r.full.DoChan(address, func() (interface{}, error) {
		return nil, r.run(r.base(address), address, view.StepBalance, view.StepNFTs, view.StepTransactions)
	})
	select {
	case res := <-ch:
		if res.Shared {
			observability.RecordRefreshCoalesced()
			r.logger.Debug("joined in-flight refresh", zap.String("address", address))
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Forget detaches any in-flight full refresh of address so the next call
// starts a new sequence.
func (r *Refresher) Forget(address string) {
	r.full.Forget(address)
}

// RefreshTransactions reloads only the transaction history.
func (r *Refresher) RefreshTransactions(ctx context.Context, address string) error {
	if address == "" {
		return nil
	}
	ctx, cancel := r.scope(ctx, address)
	defer cancel()
	return r.run(ctx, address, view.StepTransactions)
}

// RefreshAfterTransfer reloads balance and history after a send.
func (r *Refresher) RefreshAfterTransfer(ctx context.Context, address string) error {
	if address == "" {
		return nil
	}
	ctx, cancel := r.scope(ctx, address)
	defer cancel()
	return r.run(ctx, address, view.StepBalance, view.StepTransactions)
}

// scope derives a context that also ends with the address's base context.
func (r *Refresher) scope(ctx context.Context, address string) (context.Context, context.CancelFunc) {
	base := r.base(address)
	ctx, cancel := context.WithCancel(ctx)
	if base.Err() != nil {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// run executes steps in order with a pacing delay between them. Writes go
// through a view writer bound to address and stop once the view moves on.
func (r *Refresher) run(ctx context.Context, address string, steps ...view.Step) error {
	w := r.view.For(address)
	for _, s := range steps {
		w.SetLoading(s, true)
	}
	defer func() {
		for _, s := range steps {
			w.SetLoading(s, false)
		}
	}()

	var errs []error
	for i, s := range steps {
		if i > 0 {
			if err := r.sleep(ctx, r.interval); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.Current() {
			return nil
		}
		if err := r.step(ctx, w, address, s); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Refresher) step(ctx context.Context, w view.Writer, address string, s view.Step) error {
	start := time.Now()
	err := r.fetch(ctx, w, address, s)
	w.SetLoading(s, false)
	observability.RecordRefreshStep(string(s), time.Since(start).Seconds(), err)
	if err == nil || ctx.Err() != nil {
		return err
	}

	title := stepTitles[s]
	r.logger.Error(title, zap.String("address", address), zap.Error(err))
	// a disconnected or switched wallet gets no notification
	if w.SetError(s, title+". "+RetryLater+".") {
		r.notifier.Notify(title, RetryLater, notify.VariantDestructive)
	}
	return fmt.Errorf("%s: %w", s, err)
}

func (r *Refresher) fetch(ctx context.Context, w view.Writer, address string, s view.Step) error {
	switch s {
	case view.StepBalance:
		h, err := r.source.FetchHoldings(ctx, address)
		if err != nil {
			return err
		}
		w.SetHoldings(h)
	case view.StepNFTs:
		nfts, err := r.source.FetchNFTs(ctx, address)
		if err != nil {
			return err
		}
		w.SetNFTs(nfts)
	case view.StepTransactions:
		txs, err := r.source.FetchTransactions(ctx, address)
		if err != nil {
			return err
		}
		w.SetTransactions(txs)
	default:
		return fmt.Errorf("unknown step %q", s)
	}
	return nil
}
