// Package swap builds serialized swap transactions through an external
// aggregator. The agent treats the provider's transaction as an opaque blob;
// fee injection and delivery happen downstream.
package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	// DefaultBaseURL is the public Jupiter v6 aggregator API.
	DefaultBaseURL = "https://quote-api.jup.ag"

	// DefaultSlippageBps is the default slippage tolerance in basis points.
	DefaultSlippageBps = 50
)

// Params describes a swap to quote and build. Amount is in atomic units of
// the input mint.
type Params struct {
	InputMint     solana.PublicKey
	OutputMint    solana.PublicKey
	Amount        uint64
	UserPublicKey solana.PublicKey
}

// Provider returns a serialized, base64-encoded swap transaction for the
// given parameters.
type Provider interface {
	Swap(ctx context.Context, params Params) (string, error)
}

// APIError reports a failed call to the swap provider.
type APIError struct {
	Stage  string // "quote" or "swap"
	Status int    // HTTP status, 0 when the call itself failed
	Msg    string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("swap provider %s failed with status %d: %s", e.Stage, e.Status, e.Msg)
	}
	return fmt.Sprintf("swap provider %s failed: %s", e.Stage, e.Msg)
}

// Jupiter is a Provider backed by the Jupiter v6 quote and swap endpoints.
type Jupiter struct {
	baseURL     string
	slippageBps int
	apiKey      string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewJupiter creates a Jupiter provider. Empty baseURL falls back to the
// public API; non-positive slippageBps falls back to DefaultSlippageBps.
// apiKey is optional and sent as x-api-key when set.
func NewJupiter(baseURL string, slippageBps int, apiKey string, timeout time.Duration, logger *slog.Logger) *Jupiter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if slippageBps <= 0 {
		slippageBps = DefaultSlippageBps
	}
	return &Jupiter{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		slippageBps: slippageBps,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// Swap quotes the route and asks the provider to build the transaction. The
// quote JSON is passed through to the swap endpoint untouched.
func (j *Jupiter) Swap(ctx context.Context, params Params) (string, error) {
	start := time.Now()

	quote, err := j.fetchQuote(ctx, params)
	if err != nil {
		return "", err
	}

	blob, err := j.buildSwap(ctx, quote, params.UserPublicKey)
	if err != nil {
		return "", err
	}

	j.logger.DebugContext(ctx, "fetched swap transaction",
		"input_mint", params.InputMint.String(),
		"output_mint", params.OutputMint.String(),
		"amount", params.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return blob, nil
}

func (j *Jupiter) fetchQuote(ctx context.Context, params Params) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("inputMint", params.InputMint.String())
	q.Set("outputMint", params.OutputMint.String())
	q.Set("amount", fmt.Sprintf("%d", params.Amount))
	q.Set("slippageBps", fmt.Sprintf("%d", j.slippageBps))

	req, err := http.NewRequestWithContext(ctx, "GET", j.baseURL+"/v6/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, &APIError{Stage: "quote", Msg: err.Error()}
	}
	j.setHeaders(req)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Stage: "quote", Msg: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Stage: "quote", Msg: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Stage: "quote", Status: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
	}
	if !json.Valid(body) {
		return nil, &APIError{Stage: "quote", Msg: "response is not valid JSON"}
	}

	return json.RawMessage(body), nil
}

func (j *Jupiter) buildSwap(ctx context.Context, quote json.RawMessage, user solana.PublicKey) (string, error) {
	body, err := json.Marshal(swapRequest{
		QuoteResponse:    quote,
		UserPublicKey:    user.String(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", &APIError{Stage: "swap", Msg: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", j.baseURL+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Stage: "swap", Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	j.setHeaders(req)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Stage: "swap", Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Stage: "swap", Status: resp.StatusCode, Msg: strings.TrimSpace(string(msg))}
	}

	var decoded swapResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &APIError{Stage: "swap", Msg: fmt.Sprintf("decode response: %v", err)}
	}
	if decoded.SwapTransaction == "" {
		return "", &APIError{Stage: "swap", Msg: "response missing swapTransaction"}
	}

	return decoded.SwapTransaction, nil
}

func (j *Jupiter) setHeaders(req *http.Request) {
	if j.apiKey != "" {
		req.Header.Set("x-api-key", j.apiKey)
	}
}
