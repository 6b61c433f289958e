// Package main runs the wallet watcher: it streams transactions of the
// monitored wallet directly from the chain and reports them. Useful for
// verifying activity when no webhook provider is configured.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/watcher"
	"solana-copy-trader/pkg/logger"
)

func main() {
	cfg := config.FromEnv()

	flag.StringVar(&cfg.MonitoredWallet, "monitored-wallet", cfg.MonitoredWallet, "Wallet address to watch")
	flag.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	flag.StringVar(&cfg.WSEndpoint, "ws-endpoint", cfg.WSEndpoint, "Solana WebSocket endpoint (optional, polling works without it)")
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

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)

	handler := func(ctx context.Context, obs watcher.Observation) {
		fields := []zap.Field{
			zap.String("signature", obs.Signature),
			zap.Int64("slot", obs.Slot),
			zap.Bool("failed", obs.Failed),
		}
		if obs.Failed {
			zlog.Info("transaction observed", fields...)
			return
		}
		tx, err := rpc.GetTransaction(ctx, obs.Signature)
		if err != nil {
			zlog.Warn("fetching transaction", append(fields, zap.Error(err))...)
			return
		}
		if tx.BlockTime > 0 {
			fields = append(fields, zap.Int64("block_time", tx.BlockTime))
		}
		if tx.Meta != nil {
			fields = append(fields, zap.Int("log_messages", len(tx.Meta.LogMessages)))
		}
		zlog.Info("transaction observed", fields...)
	}

	w, err := watcher.New(rpc, cfg.WSEndpoint, cfg.MonitoredWallet, handler, zlog)
	if err != nil {
		zlog.Fatal("building watcher", zap.Error(err))
	}

	zlog.Info("watcher starting",
		zap.String("monitored_wallet", cfg.MonitoredWallet),
		zap.String("rpc_endpoint", cfg.RPCEndpoint),
		zap.Bool("websocket", cfg.WSEndpoint != ""))

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("watcher", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}
