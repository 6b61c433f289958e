package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/domain"
)

const (
	defaultQuoteURL = "https://quote-api.jup.ag/v6/quote"
	defaultSwapURL  = "https://lite-api.jup.ag/swap/v1/swap"

	defaultTimeout = 15 * time.Second

	// DefaultPriorityLevel is the priority fee level requested from the
	// swap endpoint when none is configured.
	DefaultPriorityLevel = "veryHigh"
)

// PriorityPolicy caps the priority fee attached to built transactions.
type PriorityPolicy struct {
	MaxLamports uint64
	Level       string
}

// Client talks to the Jupiter quote and swap HTTP APIs.
type Client struct {
	quoteURL   string
	swapURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithQuoteURL overrides the quote endpoint.
func WithQuoteURL(u string) Option {
	return func(c *Client) { c.quoteURL = u }
}

// WithSwapURL overrides the swap endpoint.
func WithSwapURL(u string) Option {
	return func(c *Client) { c.swapURL = u }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Jupiter API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		quoteURL:   defaultQuoteURL,
		swapURL:    defaultSwapURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveMint maps the native pseudo-mint to wrapped SOL. Jupiter routes
// native SOL through the wrapped mint.
func resolveMint(mint string) string {
	if mint == domain.NativeTokenID {
		return domain.WrappedSOLMint
	}
	return mint
}

// GetQuote fetches a priced route for the given pair and amount.
// Returns ErrNoRoute when the aggregator has no route for the pair,
// ErrMalformedQuote when the response cannot be used, and ErrNetwork
// for transport failures.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", resolveMint(req.InputMint))
	q.Set("outputMint", resolveMint(req.OutputMint))
	q.Set("amount", strconv.FormatUint(req.AmountRaw, 10))
	q.Set("slippageBps", strconv.FormatUint(uint64(req.SlippageBps), 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		if isNoRoute(body) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, req.InputMint, req.OutputMint)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, truncate(body))
	}

	quote, err := parseQuote(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, truncate(body))
	}
	return quote, nil
}

type apiError struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

func isNoRoute(body []byte) bool {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	if e.ErrorCode == "COULD_NOT_FIND_ANY_ROUTE" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Error), "route")
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

type swapRequest struct {
	UserPublicKey             string           `json:"userPublicKey"`
	QuoteResponse             json.RawMessage  `json:"quoteResponse"`
	PrioritizationFeeLamports prioritizationFee `json:"prioritizationFeeLamports"`
	DynamicComputeUnitLimit   bool             `json:"dynamicComputeUnitLimit"`
}

type prioritizationFee struct {
	PriorityLevelWithMaxLamports priorityLevel `json:"priorityLevelWithMaxLamports"`
}

type priorityLevel struct {
	MaxLamports   uint64 `json:"maxLamports"`
	PriorityLevel string `json:"priorityLevel"`
}

type swapResponse struct {
	SwapTransaction string          `json:"swapTransaction"`
	SimulationError json.RawMessage `json:"simulationError"`
}

// BuildSwap asks the swap endpoint to build an unsigned transaction for
// the quoted route. The quote body is echoed back verbatim. The returned
// string is the base64-encoded transaction, verified to decode into a
// valid transaction before it is handed to signing.
func (c *Client) BuildSwap(ctx context.Context, quote *Quote, userPubkey string, priority PriorityPolicy) (string, error) {
	level := priority.Level
	if level == "" {
		level = DefaultPriorityLevel
	}

	payload, err := json.Marshal(swapRequest{
		UserPublicKey: userPubkey,
		QuoteResponse: quote.Raw,
		PrioritizationFeeLamports: prioritizationFee{
			PriorityLevelWithMaxLamports: priorityLevel{
				MaxLamports:   priority.MaxLamports,
				PriorityLevel: level,
			},
		},
		DynamicComputeUnitLimit: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.swapURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, truncate(body))
	}

	var sr swapResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingTransaction, err)
	}

	if len(sr.SimulationError) > 0 && string(sr.SimulationError) != "null" {
		return "", &SimulationError{Reason: simulationReason(sr.SimulationError)}
	}
	if sr.SwapTransaction == "" {
		return "", ErrMissingTransaction
	}

	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionDecode, err)
	}
	if _, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionDecode, err)
	}

	return sr.SwapTransaction, nil
}

// simulationReason extracts a human-readable reason from the simulation
// error field, which the API returns either as a string or an object.
func simulationReason(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Error != "" {
		return obj.Error
	}
	return string(raw)
}
