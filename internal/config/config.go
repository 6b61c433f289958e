// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/wallet"
)

// Policy defaults. Overridable per deployment, bounded by
// domain.ReplicationPolicy.Validate.
const (
	DefaultSizeFraction           = 0.9
	DefaultSlippageBps            = 100
	DefaultPriorityFeeCapLamports = 1_000_000
)

// Config is the full runtime configuration.
type Config struct {
	// MonitoredWallet is the address whose swaps are replicated.
	MonitoredWallet string

	// RPCEndpoint is the Solana JSON-RPC HTTP endpoint.
	RPCEndpoint string
	// WSEndpoint is the Solana WebSocket endpoint, optional.
	WSEndpoint string

	// WalletPrivateKey is a base58-encoded signing key. Takes precedence
	// over WalletKeyFile. When both are empty a fresh wallet is generated.
	WalletPrivateKey string
	// WalletKeyFile is a solana-keygen JSON keypair file.
	WalletKeyFile string

	// ListenAddr is the webhook HTTP listen address.
	ListenAddr string

	// PostgresDSN enables the replication journal when set.
	PostgresDSN string
	// ClickhouseDSN enables quote telemetry when set.
	ClickhouseDSN string

	SizeFraction           float64
	SlippageBps            uint32
	PriorityFeeCapLamports uint64

	// Development switches the logger to console output.
	Development bool
}

// Load reads configuration from a .env file (if present) and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it. Binaries that layer
// flags on top call Validate after applying overrides.
func FromEnv() *Config {
	// Existing environment wins over .env entries.
	_ = godotenv.Load()

	return &Config{
		MonitoredWallet:        os.Getenv("MONITORED_WALLET"),
		RPCEndpoint:            envOr("SOLANA_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		WSEndpoint:             os.Getenv("SOLANA_WS_ENDPOINT"),
		WalletPrivateKey:       os.Getenv("WALLET_PRIVATE_KEY"),
		WalletKeyFile:          os.Getenv("WALLET_KEY_FILE"),
		ListenAddr:             envOr("LISTEN_ADDR", ":8080"),
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:          os.Getenv("CLICKHOUSE_DSN"),
		SizeFraction:           envFloat("SIZE_FRACTION", DefaultSizeFraction),
		SlippageBps:            uint32(envUint("SLIPPAGE_BPS", DefaultSlippageBps)),
		PriorityFeeCapLamports: envUint("PRIORITY_FEE_CAP_LAMPORTS", DefaultPriorityFeeCapLamports),
		Development:            os.Getenv("DEVELOPMENT") == "true",
	}
}

// Validate checks required fields and bounds.
func (c *Config) Validate() error {
	if c.MonitoredWallet == "" {
		return fmt.Errorf("MONITORED_WALLET is required")
	}
	if err := wallet.ValidateAddress(c.MonitoredWallet); err != nil {
		return fmt.Errorf("MONITORED_WALLET: %w", err)
	}
	if c.RPCEndpoint == "" {
		return fmt.Errorf("SOLANA_RPC_ENDPOINT is required")
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	return nil
}

// Policy returns the replication policy snapshot.
func (c *Config) Policy() domain.ReplicationPolicy {
	return domain.ReplicationPolicy{
		SizeFraction:           c.SizeFraction,
		SlippageBps:            c.SlippageBps,
		PriorityFeeCapLamports: c.PriorityFeeCapLamports,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return u
}
