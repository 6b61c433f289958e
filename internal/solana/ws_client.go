package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// OnReconnect, when set, is invoked after every successful
	// reconnect-and-resubscribe.
	OnReconnect func()
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient subscribes to transaction logs over the Solana WebSocket API.
// It holds a single logsSubscribe filter and transparently reconnects and
// resubscribes on connection loss.
type WSClient struct {
	endpoint string
	config   WSConfig
	filter   LogsFilter

	conn      *websocket.Conn
	connMu    sync.Mutex
	requestID atomic.Uint64
	closed    atomic.Bool

	notifications chan LogNotification
	done          chan struct{}
	wg            sync.WaitGroup
}

// SubscribeLogs connects to the endpoint and subscribes to logs matching the
// filter. Notifications arrive on the returned channel until Close.
func SubscribeLogs(ctx context.Context, endpoint string, filter LogsFilter, config *WSConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint:      endpoint,
		config:        cfg,
		filter:        filter,
		notifications: make(chan LogNotification, 64),
		done:          make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.subscribe(); err != nil {
		c.closeConn()
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Notifications returns the channel delivering log notifications.
func (c *WSClient) Notifications() <-chan LogNotification {
	return c.notifications
}

// Close terminates the subscription and the connection.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	c.closeConn()
	c.wg.Wait()
	close(c.notifications)
	return nil
}

func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *WSClient) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
}

// subscribe sends the logsSubscribe request on the current connection.
func (c *WSClient) subscribe() error {
	filter := map[string]interface{}{"all": nil}
	if len(c.filter.Mentions) > 0 {
		filter = map[string]interface{}{"mentions": c.filter.Mentions}
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "logsSubscribe",
		Params: []interface{}{
			filter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	return c.writeJSON(req)
}

func (c *WSClient) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// readLoop reads messages and dispatches notifications, reconnecting with
// backoff on read failure.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		c.handleMessage(message)
	}
}

// reconnect re-establishes the connection and resubscribes. Returns false
// when the client is shutting down.
func (c *WSClient) reconnect() bool {
	delay := c.config.ReconnectDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			if err := c.subscribe(); err == nil {
				if c.config.OnReconnect != nil {
					c.config.OnReconnect()
				}
				return true
			}
			c.closeConn()
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	Method string `json:"method"`
	Params *struct {
		Result struct {
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string      `json:"signature"`
				Err       interface{} `json:"err"`
				Logs      []string    `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *WSClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Method != "logsNotification" || msg.Params == nil {
		// Subscription confirmations and pongs are ignored.
		return
	}

	n := LogNotification{
		Signature: msg.Params.Result.Value.Signature,
		Err:       msg.Params.Result.Value.Err,
		Logs:      msg.Params.Result.Value.Logs,
		Slot:      msg.Params.Result.Context.Slot,
	}

	select {
	case c.notifications <- n:
	case <-c.done:
	}
}
