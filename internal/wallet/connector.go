package wallet

import (
	"context"
	"fmt"
	"time"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/ethereum"
	"solana-wallet-lab/internal/pace"
	"solana-wallet-lab/internal/solana"
)

// MockPublicKey is the address every mock handshake yields.
const MockPublicKey = "8YLKoCu4MWrxPbc2LMvGmGTcnEHJXQWKNchcMJM8f3ky"

// DefaultHandshakeDelay simulates a wallet approval prompt.
const DefaultHandshakeDelay = 1500 * time.Millisecond

// Connector performs the wallet handshake and yields the public address.
type Connector interface {
	Connect(ctx context.Context) (string, error)
}

// MockConnector returns MockPublicKey after a simulated delay.
type MockConnector struct {
	Delay   time.Duration
	Sleeper pace.Sleeper
}

var _ Connector = (*MockConnector)(nil)

// NewMockConnector creates a MockConnector with the default delay.
func NewMockConnector() *MockConnector {
	return &MockConnector{Delay: DefaultHandshakeDelay, Sleeper: pace.Sleep}
}

// Connect waits for the simulated handshake.
func (m *MockConnector) Connect(ctx context.Context) (string, error) {
	if err := pace.OrDefault(m.Sleeper)(ctx, m.Delay); err != nil {
		return "", err
	}
	return MockPublicKey, nil
}

// KeypairConnector derives the address from a locally held signing key.
type KeypairConnector struct {
	chain domain.Chain
	key   string
}

var _ Connector = (*KeypairConnector)(nil)

// NewKeypairConnector creates a connector for a base58 Solana key or a hex
// Ethereum key.
func NewKeypairConnector(chain domain.Chain, key string) *KeypairConnector {
	return &KeypairConnector{chain: chain, key: key}
}

// Connect derives the address. It fails when the key cannot be parsed.
func (k *KeypairConnector) Connect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if k.key == "" {
		return "", fmt.Errorf("no signing key configured for %s", k.chain)
	}
	switch k.chain {
	case domain.ChainEthereum:
		return ethereum.AddressFromKey(k.key)
	default:
		return solana.AddressFromKey(k.key)
	}
}
