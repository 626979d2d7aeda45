// Package ethereum provides native ETH balance reads and transfers on top of
// go-ethereum's ethclient.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultDialTimeout     = 10 * time.Second
	DefaultReceiptInterval = 2 * time.Second
	DefaultReceiptTimeout  = 90 * time.Second
	TransferGasLimit       = 21000
)

// ErrReceiptTimeout is returned when no receipt arrived within the
// signer's receipt timeout.
var ErrReceiptTimeout = errors.New("receipt timed out")

// Backend is the subset of ethclient.Client used by the wallet.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return client, nil
}

// ValidateAddress checks for a 20-byte hex address.
func ValidateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: %q is not a hex address", domain.ErrInvalidAddress, addr)
	}
	return nil
}

// Balance returns the latest wei balance of addr.
func Balance(ctx context.Context, backend Backend, addr string) (*big.Int, error) {
	if err := ValidateAddress(addr); err != nil {
		return nil, err
	}
	wei, err := backend.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return wei, nil
}

// AddressFromKey derives the checksummed address of a hex private key.
func AddressFromKey(hexKey string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// Signer signs and submits legacy native transfers.
type Signer struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	from     common.Address
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSigner creates a Signer from a hex-encoded private key.
func NewSigner(backend Backend, hexKey string, logger *zap.Logger) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signer{
		backend:  backend,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		interval: DefaultReceiptInterval,
		timeout:  DefaultReceiptTimeout,
		logger:   logger.Named("ethereum.signer"),
	}, nil
}

// SetReceiptInterval overrides the receipt polling period.
func (s *Signer) SetReceiptInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetReceiptTimeout overrides how long Transfer waits for a receipt.
func (s *Signer) SetReceiptTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Address returns the sender address.
func (s *Signer) Address() string {
	return s.from.Hex()
}

// Transfer sends wei to recipient and waits for a successful receipt.
func (s *Signer) Transfer(ctx context.Context, recipient string, wei *big.Int) (string, error) {
	if err := ValidateAddress(recipient); err != nil {
		return "", err
	}
	to := common.HexToAddress(recipient)

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("get chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    wei,
		Gas:      TransferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	hash := signed.Hash()
	s.logger.Info("transaction submitted",
		zap.String("hash", hash.Hex()),
		zap.String("to", to.Hex()),
		zap.String("wei", wei.String()))

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = s.waitReceipt(rctx, hash)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, hash.Hex(), s.timeout)
	}
	return hash.Hex(), err
}

func (s *Signer) waitReceipt(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		case !errors.Is(err, ethereum.NotFound):
			return fmt.Errorf("get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
