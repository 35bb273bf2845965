// Package client is a Go client for the agent's HTTP API. It presents the
// payment proof header on every call and surfaces 402 challenges as a typed
// error the caller can use to complete payment and retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HeaderPaymentSig is the request header carrying the payment proof.
const HeaderPaymentSig = "X-Payment-Sig"

// ExecuteParams describes one prompt execution.
type ExecuteParams struct {
	Prompt     string
	UserPubkey string
	Network    string // "devnet" (default) or "mainnet"

	// PaymentSig is the payment proof for this request: a confirmed
	// transaction signature, or the dev bypass token against a
	// development server.
	PaymentSig string
}

// ExecuteResponse is the server's answer to an execute call.
type ExecuteResponse struct {
	ActionType string          `json:"action_type"`
	TxBase64   *string         `json:"tx_base64"`
	Meta       json.RawMessage `json:"meta"`
	Message    string          `json:"message"`
}

// PaymentRequiredError is returned when the server rejects the request for
// lack of a valid payment proof. It carries everything needed to pay and
// retry.
type PaymentRequiredError struct {
	Address    string `json:"address"`
	Amount     uint64 `json:"amount"` // lamports
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment required: send %d lamports to %s", e.Amount, e.Address)
}

// Client is the HTTP client for the agent service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new agent service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Execute sends a prompt to the agent and returns the unsigned transaction
// (or metadata) it produced. A 402 response comes back as
// *PaymentRequiredError.
func (c *Client) Execute(ctx context.Context, params ExecuteParams) (*ExecuteResponse, error) {
	reqBody := map[string]string{
		"prompt":      params.Prompt,
		"user_pubkey": params.UserPubkey,
	}
	if params.Network != "" {
		reqBody["network"] = params.Network
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/agent/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if params.PaymentSig != "" {
		req.Header.Set(HeaderPaymentSig, params.PaymentSig)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		return nil, c.parsePaymentRequired(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var out ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("agent executed", "action_type", out.ActionType, "network", params.Network)
	return &out, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// parsePaymentRequired decodes a 402 challenge into a typed error.
func (c *Client) parsePaymentRequired(resp *http.Response) error {
	var challenge PaymentRequiredError
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return fmt.Errorf("payment required (failed to decode challenge: %v)", err)
	}
	return &challenge
}

// parseErrorResponse attempts to parse an error response from the server.
// The execute endpoint reports errors in its response envelope; the payment
// gate uses a bare {"error": ...} object. Both are handled.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope struct {
		ActionType string `json:"action_type"`
		Message    string `json:"message"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return fmt.Errorf("request failed: %s", envelope.Message)
		}
		if envelope.Error != "" {
			return fmt.Errorf("request failed: %s", envelope.Error)
		}
	}

	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}
