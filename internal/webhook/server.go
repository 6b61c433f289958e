// Package webhook receives swap notifications over HTTP and dispatches
// them into the replication pipeline.
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/event"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/replicator"
	"solana-copy-trader/internal/wallet"
)

const (
	// maxBodyBytes bounds a notification payload.
	maxBodyBytes = 1 << 20

	// defaultDedupSize is how many recently seen source signatures are
	// remembered. Helius redelivers on slow acks; the LRU absorbs that.
	defaultDedupSize = 4096
)

// ackBody is the fixed acknowledgement returned for every notification.
// The provider treats anything else as a delivery failure and retries.
const ackBody = `{"status":"success"}`

// Replicator mirrors a normalized swap event.
type Replicator interface {
	Replicate(ctx context.Context, event *domain.SwapEvent, policy domain.ReplicationPolicy, signer wallet.Capability) (*domain.ReplicationRecord, error)
}

// Server handles webhook notifications for one monitored wallet.
type Server struct {
	replicator Replicator
	policy     domain.ReplicationPolicy
	signer     wallet.Capability
	monitored  string

	dedup   *lru.Cache[string, struct{}]
	metrics *observability.Metrics
	log     *zap.Logger

	baseCtx context.Context
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithDispatchContext sets the context in-flight replications run under.
func WithDispatchContext(ctx context.Context) Option {
	return func(s *Server) { s.baseCtx = ctx }
}

// NewServer creates a webhook server replicating swaps of monitoredWallet.
func NewServer(rep Replicator, policy domain.ReplicationPolicy, signer wallet.Capability, monitoredWallet string, log *zap.Logger, opts ...Option) (*Server, error) {
	dedup, err := lru.New[string, struct{}](defaultDedupSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		replicator: rep,
		policy:     policy,
		signer:     signer,
		monitored:  monitoredWallet,
		dedup:      dedup,
		metrics:    observability.DefaultMetrics,
		log:        log,
		baseCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the HTTP mux: POST /webhook for notifications, plus
// /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleNotification)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// handleNotification acks every well-formed POST immediately and runs the
// replication asynchronously. A slow pipeline must never block the ack:
// the provider would time out and redeliver.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.metrics.NotificationsReceived.Inc()
	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("reading notification body failed", zap.Error(err))
		s.metrics.NotificationParseErrors.Inc()
		s.ack(w)
		return
	}

	swapEvent, err := event.Normalize(body, s.monitored)
	if err != nil {
		log.Warn("notification did not normalize", zap.Error(err))
		s.metrics.NotificationParseErrors.Inc()
		s.ack(w)
		return
	}

	if swapEvent.Signature == "" {
		s.metrics.NotificationsSkipped.WithLabelValues("missing_signature").Inc()
		s.ack(w)
		return
	}

	if seen, _ := s.dedup.ContainsOrAdd(swapEvent.Signature, struct{}{}); seen {
		log.Debug("duplicate notification dropped",
			zap.String("source_signature", swapEvent.Signature))
		s.metrics.NotificationsDeduplicated.Inc()
		s.ack(w)
		return
	}

	if !swapEvent.Complete() {
		log.Debug("notification is not a wallet swap",
			zap.String("source_signature", swapEvent.Signature))
		s.metrics.NotificationsSkipped.WithLabelValues("incomplete").Inc()
		s.ack(w)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.replicator.Replicate(s.baseCtx, swapEvent, s.policy, s.signer); err != nil {
			if errors.Is(err, replicator.ErrIncompleteEvent) || errors.Is(err, replicator.ErrZeroAmount) {
				log.Debug("replication skipped", zap.Error(err))
				return
			}
			// Stage failures are journaled and logged by the replicator.
		}
	}()

	s.ack(w)
}

func (s *Server) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ackBody))
}

// Serve runs the HTTP server until ctx is cancelled, then drains
// in-flight replications.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.metrics.UptimeSeconds.Inc()
			}
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.wg.Wait()
	return nil
}
