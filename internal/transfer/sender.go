// Package transfer validates and submits native transfers, then refreshes
// the wallet view.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/ethereum"
	"solana-wallet-lab/internal/format"
	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/observability"
	"solana-wallet-lab/internal/solana"
)

// Notification titles.
const (
	TitleSent   = "Transaction sent"
	TitleFailed = "Transaction failed"
)

// AddressProvider yields the connected address, or "" when disconnected.
type AddressProvider interface {
	Address() string
}

// BalanceProvider yields the currently displayed native balance.
type BalanceProvider interface {
	Balance() (domain.Balance, bool)
}

// Refresher reloads wallet data after a transfer.
type Refresher interface {
	RefreshAfterTransfer(ctx context.Context, address string) error
}

// Options for creating a Sender.
type Options struct {
	Chain      domain.Chain
	Transferer Transferer
	Wallet     AddressProvider
	Balance    BalanceProvider
	Refresher  Refresher
	Notifier   notify.Notifier
	Logger     *zap.Logger
}

// Sender runs the send flow.
type Sender struct {
	chain      domain.Chain
	transferer Transferer
	wallet     AddressProvider
	balance    BalanceProvider
	refresher  Refresher
	notifier   notify.Notifier
	logger     *zap.Logger
}

// Result describes a submitted transfer.
type Result struct {
	Signature string   `json:"signature"`
	Recipient string   `json:"recipient"`
	Amount    *big.Int `json:"-"`
	Display   string   `json:"amount"`
	Symbol    string   `json:"symbol"`
}

// NewSender creates a Sender.
func NewSender(opts Options) *Sender {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	chain := opts.Chain
	if !chain.IsValid() {
		chain = domain.ChainSolana
	}
	return &Sender{
		chain:      chain,
		transferer: opts.Transferer,
		wallet:     opts.Wallet,
		balance:    opts.Balance,
		refresher:  opts.Refresher,
		notifier:   opts.Notifier,
		logger:     logger.Named("transfer"),
	}
}

// Validate checks a send request without touching the network and returns
// the amount in raw units.
func (s *Sender) Validate(recipient, amount string) (*big.Int, error) {
	if s.wallet.Address() == "" {
		return nil, domain.ErrNotConnected
	}
	if err := s.validateAddress(recipient); err != nil {
		return nil, err
	}
	raw, err := format.ParseAmount(amount, s.chain.NativeDecimals())
	if err != nil {
		return nil, err
	}
	bal, ok := s.balance.Balance()
	if !ok || bal.Cmp(raw) < 0 {
		return nil, domain.ErrInsufficientBalance
	}
	return raw, nil
}

// Send validates, submits and awaits confirmation of a transfer, then
// refreshes balance and history. Validation errors are returned as is;
// submission failures wrap domain.ErrTransactionRejected.
func (s *Sender) Send(ctx context.Context, recipient, amount string) (*Result, error) {
	raw, err := s.Validate(recipient, amount)
	if err != nil {
		s.logger.Debug("send rejected by validation", zap.Error(err))
		return nil, err
	}
	from := s.wallet.Address()

	sig, err := s.transferer.Transfer(ctx, recipient, raw)
	if err != nil {
		observability.RecordTransfer(s.chain.String(), "failed")
		s.logger.Error("error sending transaction",
			zap.String("recipient", recipient), zap.String("amount", raw.String()), zap.Error(err))
		s.notifier.Notify(TitleFailed, err.Error(), notify.VariantDestructive)
		if errors.Is(err, domain.ErrTransactionRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTransactionRejected, err)
	}

	observability.RecordTransfer(s.chain.String(), "confirmed")
	res := &Result{
		Signature: sig,
		Recipient: recipient,
		Amount:    raw,
		Display:   format.Exact(raw, s.chain.NativeDecimals()),
		Symbol:    s.chain.NativeSymbol(),
	}
	s.logger.Info("transaction sent", zap.String("signature", sig), zap.String("recipient", recipient),
		zap.String("amount", res.Display))
	s.notifier.Notify(TitleSent, s.sentDescription(res), notify.VariantDefault)

	if s.refresher != nil {
		// step failures are already surfaced by the refresher
		_ = s.refresher.RefreshAfterTransfer(ctx, from)
	}
	return res, nil
}

func (s *Sender) sentDescription(r *Result) string {
	head := 4
	if s.chain == domain.ChainEthereum {
		head = 6
	}
	return fmt.Sprintf("%s %s sent to %s", r.Display, r.Symbol, format.ShortAddress(r.Recipient, head, 4))
}

func (s *Sender) validateAddress(addr string) error {
	if s.chain == domain.ChainEthereum {
		return ethereum.ValidateAddress(addr)
	}
	return solana.ValidateAddress(addr)
}
