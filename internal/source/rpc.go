package source

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/solana"
)

// DefaultSignatureLimit bounds history lookups through RPC.
const DefaultSignatureLimit = domain.MaxRecentTransactions

// RPCSource reads directly from a Solana node. It applies no retry policy
// of its own; whatever the RPC client is configured with is used as is.
type RPCSource struct {
	rpc    solana.RPCClient
	logger *zap.Logger
}

var _ Source = (*RPCSource)(nil)

// NewRPCSource creates an RPCSource.
func NewRPCSource(rpc solana.RPCClient, logger *zap.Logger) *RPCSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCSource{rpc: rpc, logger: logger.Named("source.rpc")}
}

// FetchHoldings returns lamports and fungible SPL token positions.
func (s *RPCSource) FetchHoldings(ctx context.Context, address string) (domain.Holdings, error) {
	lamports, err := s.rpc.GetBalance(ctx, address)
	if err != nil {
		return domain.Holdings{}, fmt.Errorf("get balance: %w", err)
	}
	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, address, solana.TokenProgramID)
	if err != nil {
		return domain.Holdings{}, fmt.Errorf("get token accounts: %w", err)
	}

	h := domain.Holdings{Native: domain.NewBalance(domain.ChainSolana, lamports)}
	for _, acct := range accounts {
		if isUnitAccount(acct) {
			continue
		}
		amount, ok := new(big.Int).SetString(acct.Amount, 10)
		if !ok {
			s.logger.Warn("skipping token account with malformed amount",
				zap.String("account", acct.Address), zap.String("amount", acct.Amount))
			continue
		}
		h.Tokens = append(h.Tokens, domain.TokenBalance{
			Mint:         acct.Mint,
			Amount:       amount,
			Decimals:     acct.Decimals,
			TokenAccount: acct.Address,
		})
	}
	return h, nil
}

// FetchNFTs returns token accounts holding exactly one unit.
func (s *RPCSource) FetchNFTs(ctx context.Context, address string) ([]domain.NFT, error) {
	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, address, solana.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("get token accounts: %w", err)
	}

	nfts := make([]domain.NFT, 0)
	for _, acct := range accounts {
		if isUnitAccount(acct) {
			nfts = append(nfts, domain.NFTFromMint(acct.Mint))
		}
	}
	return nfts, nil
}

// FetchTransactions resolves the latest signatures into records.
// Transactions the node cannot return are skipped.
func (s *RPCSource) FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error) {
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, address, &solana.SignaturesOpts{Limit: DefaultSignatureLimit})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	records := make([]domain.TransactionRecord, 0, len(sigs))
	for _, sig := range sigs {
		tx, err := s.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("skipping transaction", zap.String("signature", sig.Signature), zap.Error(err))
			continue
		}
		if tx == nil {
			continue
		}
		if tx.BlockTime == 0 && sig.BlockTime != nil {
			tx.BlockTime = *sig.BlockTime
		}
		records = append(records, tx.ToRecord(address))
	}
	return records, nil
}

// isUnitAccount reports a token account with a balance of exactly one.
func isUnitAccount(acct solana.TokenAccount) bool {
	if acct.UIAmount != nil {
		return *acct.UIAmount == 1
	}
	return acct.Decimals == 0 && acct.Amount == "1"
}
