// Package config loads wallet configuration from a YAML file, the
// environment (optionally seeded from .env) and command-line flags, in
// that order of precedence from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source modes.
const (
	ModeMock = "mock"
	ModeRPC  = "rpc"
	ModeAPI  = "api"
)

// Connector kinds.
const (
	ConnectorMock    = "mock"
	ConnectorKeypair = "keypair"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	Chain     string `yaml:"chain"`
	Mode      string `yaml:"mode"`
	Connector string `yaml:"connector"`

	Server   ServerConfig   `yaml:"server"`
	Solana   SolanaConfig   `yaml:"solana"`
	Helius   HeliusConfig   `yaml:"helius"`
	Ethereum EthereumConfig `yaml:"ethereum"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Transfer TransferConfig `yaml:"transfer"`
	Notify   NotifyConfig   `yaml:"notify"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr                   string   `yaml:"addr"`
	ReadTimeoutSeconds     int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds    int      `yaml:"writeTimeoutSeconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdownTimeoutSeconds"`
	CORSOrigins            []string `yaml:"corsOrigins"`
}

// SolanaConfig holds ledger node settings.
type SolanaConfig struct {
	RPCEndpoint string `yaml:"rpcEndpoint"`
	WSEndpoint  string `yaml:"wsEndpoint"`
	Commitment  string `yaml:"commitment"`
	// PrivateKey is a base58 keypair used by the keypair connector and
	// for signing transfers.
	PrivateKey string `yaml:"privateKey"`
	// UseWebSocket confirms transfers over signatureSubscribe instead of
	// polling.
	UseWebSocket bool `yaml:"useWebSocket"`
}

// HeliusConfig holds the indexed API settings.
type HeliusConfig struct {
	BaseURL string `yaml:"baseURL"`
	APIKey  string `yaml:"apiKey"`
}

// EthereumConfig holds Ethereum settings.
type EthereumConfig struct {
	RPCURL         string `yaml:"rpcURL"`
	ExplorerURL    string `yaml:"explorerURL"`
	ExplorerAPIKey string `yaml:"explorerAPIKey"`
	PrivateKey     string `yaml:"privateKey"`
}

// FetchConfig holds the retrying fetcher settings.
type FetchConfig struct {
	MaxRetries         int     `yaml:"maxRetries"`
	IntervalMillis     int     `yaml:"intervalMillis"`
	TimeoutSeconds     int     `yaml:"timeoutSeconds"`
	RateLimitPerSecond float64 `yaml:"rateLimitPerSecond"`
	RateLimitBurst     int     `yaml:"rateLimitBurst"`
}

// RefreshConfig holds refresh pacing.
type RefreshConfig struct {
	IntervalMillis int `yaml:"intervalMillis"`
}

// TransferConfig holds send settings.
type TransferConfig struct {
	// ConfirmTimeoutSeconds bounds the wait for confirmation after submit.
	ConfirmTimeoutSeconds int `yaml:"confirmTimeoutSeconds"`
}

// NotifyConfig holds notification settings.
type NotifyConfig struct {
	DurationMillis int `yaml:"durationMillis"`
}

// StorageConfig selects where the session key is persisted.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	BadgerDir   string `yaml:"badgerDir"`
	PostgresDSN string `yaml:"postgresDSN"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path (if non-empty), applies the environment and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	cfg.ApplyEnv(os.LookupEnv)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("WALLET_CHAIN", &c.Chain)
	str("WALLET_MODE", &c.Mode)
	str("WALLET_CONNECTOR", &c.Connector)
	str("WALLET_HTTP_ADDR", &c.Server.Addr)
	str("WALLET_LOG_LEVEL", &c.Logging.Level)
	str("WALLET_LOG_FORMAT", &c.Logging.Format)
	str("WALLET_STORAGE", &c.Storage.Backend)
	str("WALLET_BADGER_DIR", &c.Storage.BadgerDir)
	str("WALLET_SOLANA_PRIVATE_KEY", &c.Solana.PrivateKey)
	str("WALLET_ETHEREUM_RPC_URL", &c.Ethereum.RPCURL)
	str("WALLET_ETHEREUM_EXPLORER_URL", &c.Ethereum.ExplorerURL)
	str("WALLET_ETHEREUM_EXPLORER_API_KEY", &c.Ethereum.ExplorerAPIKey)
	str("WALLET_ETHEREUM_PRIVATE_KEY", &c.Ethereum.PrivateKey)
	integer("WALLET_FETCH_MAX_RETRIES", &c.Fetch.MaxRetries)
	integer("WALLET_FETCH_INTERVAL_MS", &c.Fetch.IntervalMillis)
	integer("WALLET_REFRESH_INTERVAL_MS", &c.Refresh.IntervalMillis)
	integer("WALLET_CONFIRM_TIMEOUT_SECONDS", &c.Transfer.ConfirmTimeoutSeconds)

	str("HELIUS_API_KEY", &c.Helius.APIKey)
	str("SOLANA_RPC_ENDPOINT", &c.Solana.RPCEndpoint)
	str("SOLANA_WS_ENDPOINT", &c.Solana.WSEndpoint)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Chain == "" {
		c.Chain = "solana"
	}
	if c.Mode == "" {
		c.Mode = ModeMock
		if c.Chain == "ethereum" {
			c.Mode = ModeRPC
		}
	}
	if c.Connector == "" {
		c.Connector = ConnectorMock
		if c.Chain == "ethereum" {
			c.Connector = ConnectorKeypair
		}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Solana.RPCEndpoint == "" {
		c.Solana.RPCEndpoint = "https://api.devnet.solana.com"
	}
	if c.Solana.WSEndpoint == "" {
		c.Solana.WSEndpoint = wsFromHTTP(c.Solana.RPCEndpoint)
	}
	if c.Solana.Commitment == "" {
		c.Solana.Commitment = "confirmed"
	}
	if c.Helius.BaseURL == "" {
		c.Helius.BaseURL = "https://api.helius.xyz/v0/addresses"
	}

	if c.Fetch.MaxRetries <= 0 {
		c.Fetch.MaxRetries = 3
	}
	if c.Fetch.IntervalMillis <= 0 {
		c.Fetch.IntervalMillis = 2000
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Refresh.IntervalMillis <= 0 {
		c.Refresh.IntervalMillis = 2000
	}
	if c.Transfer.ConfirmTimeoutSeconds <= 0 {
		c.Transfer.ConfirmTimeoutSeconds = 90
	}
	if c.Notify.DurationMillis <= 0 {
		c.Notify.DurationMillis = 5000
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageMemory
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "production"
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	switch c.Chain {
	case "solana", "ethereum":
	default:
		errs = append(errs, fmt.Errorf("unknown chain %q", c.Chain))
	}
	switch c.Mode {
	case ModeMock, ModeRPC:
	case ModeAPI:
		if c.Chain == "solana" && c.Helius.APIKey == "" {
			errs = append(errs, errors.New("api mode requires HELIUS_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Chain == "ethereum" {
		if c.Mode != ModeRPC {
			errs = append(errs, fmt.Errorf("ethereum supports only %s mode", ModeRPC))
		}
		if c.Ethereum.RPCURL == "" {
			errs = append(errs, errors.New("ethereum requires an RPC URL"))
		}
		if c.Connector != ConnectorKeypair {
			errs = append(errs, fmt.Errorf("ethereum requires the %s connector", ConnectorKeypair))
		}
	}
	switch c.Connector {
	case ConnectorMock:
	case ConnectorKeypair:
		if c.SigningKey() == "" {
			errs = append(errs, errors.New("keypair connector requires a private key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown connector %q", c.Connector))
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageBadger:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres storage requires POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SigningKey returns the private key of the configured chain.
func (c *Config) SigningKey() string {
	if c.Chain == "ethereum" {
		return c.Ethereum.PrivateKey
	}
	return c.Solana.PrivateKey
}

// FetchInterval returns the fetcher's retry wait.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.Fetch.IntervalMillis) * time.Millisecond
}

// ConfirmTimeout returns how long a send waits for confirmation.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.Transfer.ConfirmTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-request HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the pacing delay between refresh steps.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMillis) * time.Millisecond
}

// NotifyDuration returns how long notifications stay visible.
func (c *Config) NotifyDuration() time.Duration {
	return time.Duration(c.Notify.DurationMillis) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func wsFromHTTP(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
