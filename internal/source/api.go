package source

import (
	"context"
	"math/big"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/fetch"
)

// DefaultAPIBaseURL is the Helius addresses endpoint.
const DefaultAPIBaseURL = "https://api.helius.xyz/v0/addresses"

// APISource reads from a Helius-compatible REST API. Every call goes
// through the retrying fetcher.
type APISource struct {
	baseURL string
	apiKey  string
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// APISource serves balances and history only. NFTs come from the node.
var (
	_ BalanceSource     = (*APISource)(nil)
	_ TransactionSource = (*APISource)(nil)
)

// NewAPISource creates an APISource. An empty baseURL uses DefaultAPIBaseURL.
func NewAPISource(baseURL, apiKey string, fetcher *fetch.Fetcher, logger *zap.Logger) *APISource {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if fetcher == nil {
		fetcher = fetch.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		fetcher: fetcher,
		logger:  logger.Named("source.api"),
	}
}

func (s *APISource) endpoint(address, resource string) string {
	u := s.baseURL + "/" + url.PathEscape(address) + "/" + resource
	if s.apiKey != "" {
		u += "?api-key=" + url.QueryEscape(s.apiKey)
	}
	return u
}

type balancesResponse struct {
	NativeBalance rawAmount `json:"nativeBalance"`
	Tokens        []struct {
		Mint         string    `json:"mint"`
		Amount       rawAmount `json:"amount"`
		Decimals     int32     `json:"decimals"`
		TokenAccount string    `json:"tokenAccount"`
	} `json:"tokens"`
}

func (s *APISource) balances(ctx context.Context, address string) (*balancesResponse, error) {
	var resp balancesResponse
	if err := s.fetcher.Get(ctx, s.endpoint(address, "balances"), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchHoldings returns the native balance and all token positions.
func (s *APISource) FetchHoldings(ctx context.Context, address string) (domain.Holdings, error) {
	resp, err := s.balances(ctx, address)
	if err != nil {
		return domain.Holdings{}, err
	}

	h := domain.Holdings{
		Native: domain.Balance{Chain: domain.ChainSolana, Raw: resp.NativeBalance.value()},
		Tokens: make([]domain.TokenBalance, 0, len(resp.Tokens)),
	}
	for _, t := range resp.Tokens {
		h.Tokens = append(h.Tokens, domain.TokenBalance{
			Mint:         t.Mint,
			Amount:       t.Amount.value(),
			Decimals:     t.Decimals,
			TokenAccount: t.TokenAccount,
		})
	}
	return h, nil
}

type enhancedTransaction struct {
	Signature        string      `json:"signature"`
	Timestamp        int64       `json:"timestamp"`
	Type             string      `json:"type"`
	FeePayer         string      `json:"feePayer"`
	TransactionError interface{} `json:"transactionError"`
	NativeTransfers  []struct {
		FromUserAccount string    `json:"fromUserAccount"`
		ToUserAccount   string    `json:"toUserAccount"`
		Amount          rawAmount `json:"amount"`
	} `json:"nativeTransfers"`
}

// FetchTransactions returns up to the 10 most recent transactions.
func (s *APISource) FetchTransactions(ctx context.Context, address string) ([]domain.TransactionRecord, error) {
	var txs []enhancedTransaction
	if err := s.fetcher.Get(ctx, s.endpoint(address, "transactions"), &txs); err != nil {
		return nil, err
	}
	s.logger.Debug("fetched transactions", zap.String("address", address), zap.Int("count", len(txs)))
	if len(txs) > domain.MaxRecentTransactions {
		txs = txs[:domain.MaxRecentTransactions]
	}

	records := make([]domain.TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, tx.toRecord(address))
	}
	return records, nil
}

// toRecord nets native transfers in and out of owner.
func (tx enhancedTransaction) toRecord(owner string) domain.TransactionRecord {
	rec := domain.TransactionRecord{
		Signature: tx.Signature,
		Direction: domain.DirectionUnknown,
		Amount:    new(big.Int),
		Timestamp: tx.Timestamp * 1000,
		Failed:    tx.TransactionError != nil,
	}

	in, out := new(big.Int), new(big.Int)
	var from, to string
	for _, t := range tx.NativeTransfers {
		switch {
		case t.FromUserAccount == owner && t.ToUserAccount != owner:
			out.Add(out, t.Amount.value())
			if to == "" {
				to = t.ToUserAccount
			}
		case t.ToUserAccount == owner && t.FromUserAccount != owner:
			in.Add(in, t.Amount.value())
			if from == "" {
				from = t.FromUserAccount
			}
		}
	}

	switch net := new(big.Int).Sub(in, out); net.Sign() {
	case 1:
		rec.Direction = domain.DirectionReceived
		rec.Amount = net
		rec.Counterparty = from
	case -1:
		rec.Direction = domain.DirectionSent
		rec.Amount = net.Neg(net)
		rec.Counterparty = to
	}
	return rec
}
