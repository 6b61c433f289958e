// Package main runs the webhook daemon: it receives swap notifications
// for a monitored wallet and replicates them with the bot wallet.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/jupiter"
	"solana-copy-trader/internal/replicator"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
	chstore "solana-copy-trader/internal/storage/clickhouse"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/storage/migrations"
	pgstore "solana-copy-trader/internal/storage/postgres"
	"solana-copy-trader/internal/submit"
	"solana-copy-trader/internal/wallet"
	"solana-copy-trader/internal/webhook"
	"solana-copy-trader/pkg/logger"
)

func main() {
	cfg := config.FromEnv()

	// Flags override environment.
	flag.StringVar(&cfg.MonitoredWallet, "monitored-wallet", cfg.MonitoredWallet, "Wallet address whose swaps are replicated")
	flag.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	flag.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "Webhook HTTP listen address")
	flag.StringVar(&cfg.WalletKeyFile, "wallet-key-file", cfg.WalletKeyFile, "solana-keygen keypair file for the bot wallet")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN for the replication journal (optional)")
	flag.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse DSN for quote telemetry (optional)")
	flag.Float64Var(&cfg.SizeFraction, "size-fraction", cfg.SizeFraction, "Fraction of the observed amount to mirror")
	flag.BoolVar(&cfg.Development, "dev", cfg.Development, "Console logging")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	signer, err := loadWallet(cfg, zlog)
	if err != nil {
		zlog.Fatal("loading wallet", zap.Error(err))
	}

	journal, telemetry, closeStores, err := openStores(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("opening stores", zap.Error(err))
	}
	defer closeStores()

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	jup := jupiter.NewClient()
	submitter := submit.NewSubmitter(rpc, zlog)

	rep := replicator.New(jup, jup, submitter, zlog,
		replicator.WithJournal(journal),
		replicator.WithTelemetry(telemetry),
	)

	srv, err := webhook.NewServer(rep, cfg.Policy(), signer, cfg.MonitoredWallet, zlog,
		webhook.WithDispatchContext(ctx))
	if err != nil {
		zlog.Fatal("building webhook server", zap.Error(err))
	}

	zlog.Info("copy trader starting",
		zap.String("monitored_wallet", cfg.MonitoredWallet),
		zap.String("bot_wallet", signer.PublicKey().String()),
		zap.Float64("size_fraction", cfg.SizeFraction),
		zap.Uint32("slippage_bps", cfg.SlippageBps))

	if err := srv.Serve(ctx, cfg.ListenAddr); err != nil {
		zlog.Fatal("webhook server", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}

// loadWallet resolves the bot wallet: explicit key, then keypair file,
// then a freshly generated wallet that must be funded before use.
func loadWallet(cfg *config.Config, zlog *zap.Logger) (*wallet.Keypair, error) {
	switch {
	case cfg.WalletPrivateKey != "":
		kp, err := wallet.FromBase58(cfg.WalletPrivateKey)
		if err != nil {
			return nil, err
		}
		zlog.Info("wallet loaded from key", zap.String("pubkey", kp.PublicKey().String()))
		return kp, nil

	case cfg.WalletKeyFile != "":
		kp, err := wallet.FromFile(cfg.WalletKeyFile)
		if err != nil {
			return nil, err
		}
		zlog.Info("wallet loaded from file",
			zap.String("file", cfg.WalletKeyFile),
			zap.String("pubkey", kp.PublicKey().String()))
		return kp, nil

	default:
		kp, err := wallet.Generate()
		if err != nil {
			return nil, err
		}
		zlog.Warn("no wallet configured, generated a new one; fund it before replications can land",
			zap.String("pubkey", kp.PublicKey().String()),
			zap.String("private_key", kp.PrivateKeyBase58()))
		return kp, nil
	}
}

// openStores wires the journal and telemetry backends. Without DSNs the
// daemon runs on in-memory stores, losing history on restart.
func openStores(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (storage.ReplicationStore, storage.QuoteObservationStore, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var journal storage.ReplicationStore
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		journal = pgstore.NewReplicationStore(pool)
		zlog.Info("replication journal on postgres")
	} else {
		journal = memory.NewReplicationStore()
		zlog.Warn("no postgres DSN, replication journal is in-memory")
	}

	var telemetry storage.QuoteObservationStore
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { conn.Close() })
		telemetry = chstore.NewQuoteObservationStore(conn)
		zlog.Info("quote telemetry on clickhouse")
	} else {
		telemetry = memory.NewQuoteObservationStore()
	}

	return journal, telemetry, closeAll, nil
}
