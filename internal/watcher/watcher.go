// Package watcher observes a wallet's on-chain activity without relying
// on webhook delivery. It is the fallback path when no public HTTP
// endpoint is available.
package watcher

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/solana"
)

// Observation is one transaction seen for the monitored wallet.
type Observation struct {
	Signature string
	Slot      int64
	Failed    bool
}

// Handler consumes observations. Called sequentially in observation order.
type Handler func(ctx context.Context, obs Observation)

const (
	defaultPollInterval = 10 * time.Second
	defaultPollLimit    = 25

	// seenCacheSize bounds the dedup window. The WS stream and the poller
	// overlap within seconds, so a few thousand signatures is ample.
	seenCacheSize = 4096
)

// Watcher streams transactions mentioning a wallet, primarily over a
// logsSubscribe WebSocket, with signature polling as the backstop for
// notifications missed across reconnects.
type Watcher struct {
	rpc        solana.RPCClient
	wsEndpoint string
	wallet     string
	handler    Handler

	pollInterval time.Duration
	metrics      *observability.Metrics
	log          *zap.Logger

	seen *lru.Cache[string, struct{}]
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPollInterval sets the polling cadence of the backstop.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// New creates a Watcher for one wallet.
func New(rpc solana.RPCClient, wsEndpoint, wallet string, handler Handler, log *zap.Logger, opts ...Option) (*Watcher, error) {
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating dedup cache: %w", err)
	}
	w := &Watcher{
		rpc:          rpc,
		wsEndpoint:   wsEndpoint,
		wallet:       wallet,
		handler:      handler,
		pollInterval: defaultPollInterval,
		metrics:      observability.DefaultMetrics,
		log:          log,
		seen:         seen,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is cancelled. The WebSocket subscription and the
// polling backstop run concurrently; observations are deduplicated and
// handled on Run's goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	obsCh := make(chan Observation, 64)

	if w.wsEndpoint != "" {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.OnReconnect = w.metrics.WatcherReconnectsTotal.Inc
		ws, err := solana.SubscribeLogs(ctx, w.wsEndpoint, solana.LogsFilter{
			Mentions: []string{w.wallet},
		}, &wsCfg)
		if err != nil {
			// The poller still covers the wallet; degrade, don't abort.
			w.log.Warn("log subscription failed, polling only", zap.Error(err))
		} else {
			defer ws.Close()
			go w.consumeLogs(ctx, ws, obsCh)
		}
	}

	go w.poll(ctx, obsCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case obs := <-obsCh:
			if dup, _ := w.seen.ContainsOrAdd(obs.Signature, struct{}{}); dup {
				continue
			}
			w.handler(ctx, obs)
		}
	}
}

func (w *Watcher) consumeLogs(ctx context.Context, ws *solana.WSClient, out chan<- Observation) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ws.Notifications():
			if !ok {
				return
			}
			select {
			case out <- Observation{Signature: n.Signature, Slot: n.Slot, Failed: n.Err != nil}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// poll fetches recent signatures for the wallet. Newest-first responses
// are replayed oldest-first so handlers see transactions in order.
func (w *Watcher) poll(ctx context.Context, out chan<- Observation) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var lastSeen string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sigs, err := w.rpc.GetSignaturesForAddress(ctx, w.wallet, &solana.SignaturesOpts{
			Until: lastSeen,
			Limit: defaultPollLimit,
		})
		if err != nil {
			w.log.Warn("signature poll failed", zap.Error(err))
			continue
		}
		if len(sigs) == 0 {
			continue
		}
		lastSeen = sigs[0].Signature

		for i := len(sigs) - 1; i >= 0; i-- {
			s := sigs[i]
			select {
			case out <- Observation{Signature: s.Signature, Slot: s.Slot, Failed: s.Err != nil}:
			case <-ctx.Done():
				return
			}
		}
	}
}
