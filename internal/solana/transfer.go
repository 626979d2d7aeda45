package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"
)

// DefaultConfirmTimeout bounds how long Transfer waits for confirmation.
const DefaultConfirmTimeout = 90 * time.Second

var (
	// ErrBlockhashExpired is returned when the cluster passed the
	// transaction's last valid block height without processing it.
	ErrBlockhashExpired = errors.New("blockhash expired before confirmation")

	// ErrConfirmTimeout is returned when confirmation took longer than the
	// signer's confirm timeout.
	ErrConfirmTimeout = errors.New("confirmation timed out")
)

// Confirmer waits until a submitted signature reaches confirmed commitment.
// A non-zero lastValidBlockHeight lets it give up once the transaction's
// blockhash has expired.
type Confirmer interface {
	WaitConfirmed(ctx context.Context, signature string, lastValidBlockHeight uint64) error
}

// Signer builds, signs and submits native SOL transfers.
type Signer struct {
	rpc            RPCClient
	key            sol.PrivateKey
	confirmer      Confirmer
	confirmTimeout time.Duration
	logger         *zap.Logger
}

// NewSigner creates a Signer from a base58-encoded private key.
func NewSigner(rpc RPCClient, privateKey string, confirmer Confirmer, logger *zap.Logger) (*Signer, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmer == nil {
		confirmer = NewPollingConfirmer(rpc, 0)
	}
	return &Signer{
		rpc:            rpc,
		key:            key,
		confirmer:      confirmer,
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logger.Named("solana.signer"),
	}, nil
}

// SetConfirmTimeout overrides how long Transfer waits for confirmation.
func (s *Signer) SetConfirmTimeout(d time.Duration) {
	if d > 0 {
		s.confirmTimeout = d
	}
}

// AddressFromKey derives the address of a base58-encoded private key.
func AddressFromKey(privateKey string) (string, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return key.PublicKey().String(), nil
}

func parsePrivateKey(privateKey string) (sol.PrivateKey, error) {
	key, err := sol.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if len(key) != PrivateKeyLength {
		return nil, fmt.Errorf("parse private key: expected %d bytes, got %d", PrivateKeyLength, len(key))
	}
	return key, nil
}

// Address returns the signer's public key.
func (s *Signer) Address() string {
	return s.key.PublicKey().String()
}

// Transfer sends lamports to recipient and waits for confirmation.
func (s *Signer) Transfer(ctx context.Context, recipient string, lamports uint64) (string, error) {
	to, err := sol.PublicKeyFromBase58(recipient)
	if err != nil {
		return "", fmt.Errorf("parse recipient: %w", err)
	}
	if !IsOnCurve(recipient) {
		s.logger.Warn("recipient is off-curve (program-derived address)", zap.String("recipient", recipient))
	}

	blockhash, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}
	hash, err := sol.HashFromBase58(blockhash.Blockhash)
	if err != nil {
		return "", fmt.Errorf("parse blockhash: %w", err)
	}

	from := s.key.PublicKey()
	tx, err := sol.NewTransaction(
		[]sol.Instruction{
			system.NewTransferInstruction(lamports, from, to).Build(),
		},
		hash,
		sol.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if key.Equals(from) {
			return &s.key
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	signature, err := s.rpc.SendTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	s.logger.Info("transaction submitted",
		zap.String("signature", signature),
		zap.String("to", recipient),
		zap.Uint64("lamports", lamports))

	cctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	err = s.confirmer.WaitConfirmed(cctx, signature, blockhash.LastValidBlockHeight)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %s", ErrConfirmTimeout, signature, s.confirmTimeout)
	}
	if err != nil {
		s.logger.Warn("transaction not confirmed", zap.String("signature", signature), zap.Error(err))
		return signature, err
	}
	return signature, nil
}

// DefaultPollInterval is the status polling period.
const DefaultPollInterval = 1 * time.Second

// PollingConfirmer polls getSignatureStatuses until the signature confirms.
type PollingConfirmer struct {
	rpc      RPCClient
	interval time.Duration
}

// NewPollingConfirmer creates a PollingConfirmer. A zero interval uses
// DefaultPollInterval.
func NewPollingConfirmer(rpc RPCClient, interval time.Duration) *PollingConfirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingConfirmer{rpc: rpc, interval: interval}
}

// WaitConfirmed blocks until signature is confirmed, fails, its blockhash
// expires, or ctx ends.
func (p *PollingConfirmer) WaitConfirmed(ctx context.Context, signature string, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		done, err := p.check(ctx, signature, lastValidBlockHeight)
		if done || err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// check reports whether signature is settled. Past the last valid block
// height the status is read once more, since the transaction may have
// landed in the final block.
func (p *PollingConfirmer) check(ctx context.Context, signature string, lastValidBlockHeight uint64) (bool, error) {
	done, err := p.status(ctx, signature)
	if done || err != nil || lastValidBlockHeight == 0 {
		return done, err
	}

	height, err := p.rpc.GetBlockHeight(ctx)
	if err != nil {
		// transient; the next tick retries
		return false, nil
	}
	if height <= lastValidBlockHeight {
		return false, nil
	}
	if done, err := p.status(ctx, signature); done || err != nil {
		return done, err
	}
	return true, fmt.Errorf("%w: %s at height %d, last valid %d", ErrBlockhashExpired, signature, height, lastValidBlockHeight)
}

func (p *PollingConfirmer) status(ctx context.Context, signature string) (bool, error) {
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		return false, fmt.Errorf("get signature status: %w", err)
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}
	st := statuses[0]
	if st.Err != nil {
		return true, fmt.Errorf("transaction %s failed: %v", signature, st.Err)
	}
	return st.Confirmed(), nil
}
