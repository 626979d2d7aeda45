package transfer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"solana-wallet-lab/internal/ethereum"
	"solana-wallet-lab/internal/pace"
	"solana-wallet-lab/internal/solana"
)

// DefaultMockDelay simulates submission and confirmation of a mock send.
const DefaultMockDelay = 2 * time.Second

// Transferer submits a native transfer of raw units and waits until it is
// confirmed. It returns the transaction signature or hash.
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount *big.Int) (string, error)
}

// SolanaTransferer adapts solana.Signer.
type SolanaTransferer struct {
	Signer *solana.Signer
}

var _ Transferer = SolanaTransferer{}

// Transfer sends lamports.
func (t SolanaTransferer) Transfer(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	if !amount.IsUint64() {
		return "", fmt.Errorf("amount %s exceeds lamport range", amount)
	}
	return t.Signer.Transfer(ctx, recipient, amount.Uint64())
}

// EthereumTransferer adapts ethereum.Signer.
type EthereumTransferer struct {
	Signer *ethereum.Signer
}

var _ Transferer = EthereumTransferer{}

// Transfer sends wei.
func (t EthereumTransferer) Transfer(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	return t.Signer.Transfer(ctx, recipient, amount)
}

// MockTransferer pretends to send after a delay and never touches a network.
type MockTransferer struct {
	Delay   time.Duration
	Sleeper pace.Sleeper
}

var _ Transferer = (*MockTransferer)(nil)

// NewMockTransferer creates a MockTransferer with DefaultMockDelay.
func NewMockTransferer() *MockTransferer {
	return &MockTransferer{Delay: DefaultMockDelay, Sleeper: pace.Sleep}
}

// Transfer waits and returns a random signature.
func (m *MockTransferer) Transfer(ctx context.Context, _ string, _ *big.Int) (string, error) {
	if err := pace.OrDefault(m.Sleeper)(ctx, m.Delay); err != nil {
		return "", err
	}
	return "mock-" + uuid.NewString(), nil
}
