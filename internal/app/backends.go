package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"solana-wallet-lab/internal/config"
	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/ethereum"
	"solana-wallet-lab/internal/fetch"
	"solana-wallet-lab/internal/solana"
	"solana-wallet-lab/internal/source"
	"solana-wallet-lab/internal/storage"
	badgerstore "solana-wallet-lab/internal/storage/badger"
	"solana-wallet-lab/internal/storage/memory"
	"solana-wallet-lab/internal/storage/migrations"
	"solana-wallet-lab/internal/storage/postgres"
	"solana-wallet-lab/internal/transfer"
	"solana-wallet-lab/internal/wallet"
)

// ErrNoSigner is returned by sends when no signing key is configured.
var ErrNoSigner = errors.New("no signing key configured")

type noSigner struct{}

func (noSigner) Transfer(context.Context, string, *big.Int) (string, error) {
	return "", ErrNoSigner
}

// backends groups the chain-facing components chosen by configuration.
type backends struct {
	source     source.Source
	transferer transfer.Transferer
	connector  wallet.Connector
}

func (s *Session) openStore(ctx context.Context) (storage.SessionStore, error) {
	cfg := s.cfg.Storage
	switch cfg.Backend {
	case config.StorageBadger:
		store, err := badgerstore.Open(cfg.BadgerDir, s.logger)
		if err != nil {
			return nil, err
		}
		s.addCloser(store.Close)
		return store, nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.addCloser(func() error {
			pool.Close()
			return nil
		})
		if err := migrations.RunPostgresMigrations(ctx, pool, s.logger); err != nil {
			return nil, err
		}
		return postgres.NewSessionStore(pool), nil
	default:
		return memory.NewSessionStore(), nil
	}
}

func (s *Session) newFetcher() *fetch.Fetcher {
	cfg := s.cfg
	return fetch.New(
		fetch.WithMaxRetries(cfg.Fetch.MaxRetries),
		fetch.WithInterval(cfg.FetchInterval()),
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout()}),
		fetch.WithRateLimit(cfg.Fetch.RateLimitPerSecond, cfg.Fetch.RateLimitBurst),
		fetch.WithSleeper(s.opts.sleeper),
		fetch.WithLogger(s.logger),
	)
}

func (s *Session) buildBackends(ctx context.Context) (*backends, error) {
	if s.chain == domain.ChainEthereum {
		return s.ethereumBackends(ctx)
	}
	return s.solanaBackends(ctx)
}

func (s *Session) solanaBackends(ctx context.Context) (*backends, error) {
	cfg := s.cfg
	b := &backends{}

	switch cfg.Connector {
	case config.ConnectorKeypair:
		b.connector = wallet.NewKeypairConnector(domain.ChainSolana, cfg.Solana.PrivateKey)
	default:
		mock := wallet.NewMockConnector()
		if s.opts.sleeper != nil {
			mock.Sleeper = s.opts.sleeper
		}
		b.connector = mock
	}

	if cfg.Mode == config.ModeMock {
		var opts []source.MockOption
		mockTransfer := transfer.NewMockTransferer()
		if s.opts.sleeper != nil {
			opts = append(opts, source.WithMockSleeper(s.opts.sleeper))
			mockTransfer.Sleeper = s.opts.sleeper
		}
		b.source = source.Uniform(config.ModeMock, source.NewMockSource(opts...))
		b.transferer = mockTransfer
		return b, nil
	}

	rpc := s.newSolanaRPC()

	switch cfg.Mode {
	case config.ModeAPI:
		api := source.NewAPISource(cfg.Helius.BaseURL, cfg.Helius.APIKey, s.newFetcher(), s.logger)
		// NFTs are read straight from the node with a single attempt
		nftRPC := s.newSolanaRPC(solana.WithMaxRetries(0))
		b.source = &source.Set{
			Name:         "helius",
			Balance:      api,
			NFTs:         source.NewRPCSource(nftRPC, s.logger),
			Transactions: api,
		}
	default:
		b.source = source.Uniform(config.ModeRPC, source.NewRPCSource(rpc, s.logger))
	}

	if cfg.Solana.PrivateKey == "" {
		b.transferer = noSigner{}
		return b, nil
	}

	var confirmer solana.Confirmer
	if cfg.Solana.UseWebSocket {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Commitment = cfg.Solana.Commitment
		ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, &wsCfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.addCloser(ws.Close)
		confirmer = solana.NewWSConfirmer(ws, rpc)
	}
	signer, err := solana.NewSigner(rpc, cfg.Solana.PrivateKey, confirmer, s.logger)
	if err != nil {
		return nil, err
	}
	signer.SetConfirmTimeout(cfg.ConfirmTimeout())
	b.transferer = transfer.SolanaTransferer{Signer: signer}
	return b, nil
}

// newSolanaRPC builds a node client with the configured commitment and
// request timeout; extra options are applied last.
func (s *Session) newSolanaRPC(extra ...solana.ClientOption) *solana.HTTPClient {
	opts := []solana.ClientOption{
		solana.WithCommitment(s.cfg.Solana.Commitment),
		solana.WithTimeout(s.cfg.FetchTimeout()),
		solana.WithLogger(s.logger),
	}
	return solana.NewHTTPClient(s.cfg.Solana.RPCEndpoint, append(opts, extra...)...)
}

func (s *Session) ethereumBackends(ctx context.Context) (*backends, error) {
	cfg := s.cfg
	client, err := ethereum.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		return nil, err
	}
	s.addCloser(func() error {
		client.Close()
		return nil
	})

	signer, err := ethereum.NewSigner(client, cfg.Ethereum.PrivateKey, s.logger)
	if err != nil {
		return nil, fmt.Errorf("ethereum signer: %w", err)
	}
	signer.SetReceiptTimeout(cfg.ConfirmTimeout())
	src := source.NewEthereumSource(client, cfg.Ethereum.ExplorerURL, cfg.Ethereum.ExplorerAPIKey, s.newFetcher(), s.logger)
	return &backends{
		source:     source.Uniform("ethereum", src),
		transferer: transfer.EthereumTransferer{Signer: signer},
		connector:  wallet.NewKeypairConnector(domain.ChainEthereum, cfg.Ethereum.PrivateKey),
	}, nil
}
