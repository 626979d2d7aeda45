package source

import (
	"context"
	"math/big"
	"time"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/pace"
)

// DefaultMockDelay simulates network latency of the mock source.
const DefaultMockDelay = 1500 * time.Millisecond

// Mock token mints.
const (
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// MockSource serves fixed data after a simulated delay.
type MockSource struct {
	delay time.Duration
	sleep pace.Sleeper
	now   func() time.Time
}

var _ Source = (*MockSource)(nil)

// MockOption configures MockSource.
type MockOption func(*MockSource)

// WithMockDelay sets the simulated latency.
func WithMockDelay(d time.Duration) MockOption {
	return func(m *MockSource) {
		m.delay = d
	}
}

// WithMockSleeper replaces the delay primitive.
func WithMockSleeper(s pace.Sleeper) MockOption {
	return func(m *MockSource) {
		m.sleep = s
	}
}

// WithMockClock sets the clock used for transaction timestamps.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockSource) {
		m.now = now
	}
}

// NewMockSource creates a MockSource.
func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{
		delay: DefaultMockDelay,
		sleep: pace.Sleep,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sleep = pace.OrDefault(m.sleep)
	return m
}

// FetchHoldings returns 1.5 SOL plus USDC and USDT positions.
func (m *MockSource) FetchHoldings(ctx context.Context, address string) (domain.Holdings, error) {
	if err := m.sleep(ctx, m.delay); err != nil {
		return domain.Holdings{}, err
	}
	return domain.Holdings{
		Native: domain.NewBalance(domain.ChainSolana, 1_500_000_000),
		Tokens: []domain.TokenBalance{
			{Mint: MintUSDC, Symbol: "USDC", Amount: big.NewInt(25_000_000), Decimals: 6},
			{Mint: MintUSDT, Symbol: "USDT", Amount: big.NewInt(10_000_000), Decimals: 6},
		},
	}, nil
}

// FetchNFTs returns no NFTs.
func (m *MockSource) FetchNFTs(ctx context.Context, address string) ([]domain.NFT, error) {
	if err := m.sleep(ctx, m.delay); err != nil {
		return nil, err
	}
	return []domain.NFT{}, nil
}

// FetchTransactions returns three transactions relative to now.
func (m *MockSource) FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error) {
	if err := m.sleep(ctx, m.delay); err != nil {
		return nil, err
	}
	now := m.now()
	return []domain.TransactionRecord{
		{
			Signature:    "5UfgJ5sVQKQrUhsKHkNLm9T9GmYw3s9xnVMTb1L1zzYBs9aTVFUiXpXTBTuxxZBo6JeUMKcCpUxQ5QDUokBLkXKE",
			Direction:    domain.DirectionReceived,
			Amount:       big.NewInt(100_000_000),
			Timestamp:    now.Add(-30 * time.Minute).UnixMilli(),
			Counterparty: "8YLKoCu4MWrxPbc2LMvGmGTcnEHJXQWKNchcMJM8f3ky",
		},
		{
			Signature:    "4xA2UW9u3Rj1NqKJnxXCxLUQxffNzQnHZbVnTQ6Vn7UD7z8LcWzwJLjA1k2i9g6XHqVCsKQnKWnKHk8QJJf4Bnxs",
			Direction:    domain.DirectionSent,
			Amount:       big.NewInt(50_000_000),
			Timestamp:    now.Add(-2 * time.Hour).UnixMilli(),
			Counterparty: "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy",
		},
		{
			Signature:    "2JQm5YT3KKfKTZYqJ5xUzpCeuPxGVrA8fXzYtdKdHxTNnbLG8AjZ8xnGfk6KqeahU4KVJUxqZ2WJYFmjkEZcRFqd",
			Direction:    domain.DirectionReceived,
			Amount:       big.NewInt(200_000_000),
			Timestamp:    now.Add(-24 * time.Hour).UnixMilli(),
			Counterparty: "6YR1MrGu1tmk5sWNGjmJYXQxTNNcy1aFRvmKQtqHhUKr",
		},
	}, nil
}
