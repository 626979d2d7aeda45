// Package source defines the wallet's data-source capabilities and their
// mock, ledger-RPC and rate-limited API implementations.
package source

import (
	"context"

	"solana-wallet-lab/internal/domain"
)

// BalanceSource reads native balance and fungible token positions.
type BalanceSource interface {
	FetchHoldings(ctx context.Context, address string) (domain.Holdings, error)
}

// NFTSource reads non-fungible holdings.
type NFTSource interface {
	FetchNFTs(ctx context.Context, address string) ([]domain.NFT, error)
}

// TransactionSource reads recent transaction history.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error)
}

// Source provides all three capabilities.
type Source interface {
	BalanceSource
	NFTSource
	TransactionSource
}

// Set routes each capability to its own implementation, so one concern can
// use a different read path (and retry policy) than the others.
type Set struct {
	Name         string
	Balance      BalanceSource
	NFTs         NFTSource
	Transactions TransactionSource
}

var _ Source = (*Set)(nil)

// Uniform builds a Set served entirely by src.
func Uniform(name string, src Source) *Set {
	return &Set{Name: name, Balance: src, NFTs: src, Transactions: src}
}

// FetchHoldings implements BalanceSource.
func (s *Set) FetchHoldings(ctx context.Context, address string) (domain.Holdings, error) {
	return s.Balance.FetchHoldings(ctx, address)
}

// FetchNFTs implements NFTSource.
func (s *Set) FetchNFTs(ctx context.Context, address string) ([]domain.NFT, error) {
	return s.NFTs.FetchNFTs(ctx, address)
}

// FetchTransactions implements TransactionSource.
func (s *Set) FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error) {
	return s.Transactions.FetchTransactions(ctx, address)
}
