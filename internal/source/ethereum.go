package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/ethereum"
	"solana-wallet-lab/internal/fetch"
)

// EthereumSource reads ETH balances from a node and history from an
// Etherscan-compatible API. NFTs are not supported.
type EthereumSource struct {
	backend     ethereum.Backend
	explorerURL string
	apiKey      string
	fetcher     *fetch.Fetcher
	logger      *zap.Logger
}

var _ Source = (*EthereumSource)(nil)

// NewEthereumSource creates an EthereumSource. An empty explorerURL
// disables history.
func NewEthereumSource(backend ethereum.Backend, explorerURL, apiKey string, fetcher *fetch.Fetcher, logger *zap.Logger) *EthereumSource {
	if fetcher == nil {
		fetcher = fetch.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthereumSource{
		backend:     backend,
		explorerURL: explorerURL,
		apiKey:      apiKey,
		fetcher:     fetcher,
		logger:      logger.Named("source.ethereum"),
	}
}

// FetchHoldings returns the wei balance.
func (s *EthereumSource) FetchHoldings(ctx context.Context, address string) (domain.Holdings, error) {
	wei, err := ethereum.Balance(ctx, s.backend, address)
	if err != nil {
		return domain.Holdings{}, err
	}
	return domain.Holdings{
		Native: domain.Balance{Chain: domain.ChainEthereum, Raw: wei},
		Tokens: []domain.TokenBalance{},
	}, nil
}

// FetchNFTs returns an empty list.
func (s *EthereumSource) FetchNFTs(context.Context, string) ([]domain.NFT, error) {
	return []domain.NFT{}, nil
}

// FetchTransactions returns recent normal transactions.
func (s *EthereumSource) FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error) {
	if s.explorerURL == "" {
		s.logger.Debug("no explorer configured, skipping history")
		return []domain.TransactionRecord{}, nil
	}

	var resp ethereum.TxListResponse
	url := ethereum.TxListURL(s.explorerURL, address, s.apiKey, domain.MaxRecentTransactions)
	if err := s.fetcher.Get(ctx, url, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
	}

	records := make([]domain.TransactionRecord, 0, len(resp.Result.Items))
	for _, item := range resp.Result.Items {
		records = append(records, item.ToRecord(address))
	}
	return records, nil
}
