package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultGeminiBaseURL is the Google Generative Language API endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.0-flash"
)

// systemPrompt forces the model to emit a single JSON object matching the
// Intent schema. Few-shot examples pin the field conventions.
const systemPrompt = `You are a Solana Transaction Parser. Output strictly JSON. No markdown.
Schema:
{
  "action": "SWAP" | "TRANSFER" | "MINT_NFT",
  "amount": number (0 if not applicable),
  "token_in": "SOL" | "USDC" | "BONK" (default SOL),
  "token_out": "USDC" (target token),
  "recipient": "PubkeyString" (if transfer),
  "nft_name": "String" (if mint)
}
User: "Swap 1 SOL for USDC" -> {"action":"SWAP", "amount":1, "token_in":"SOL", "token_out":"USDC"}
User: "Send 0.5 SOL to 8Xy..." -> {"action":"TRANSFER", "amount":0.5, "token_in":"SOL", "token_out":"", "recipient":"8Xy..."}`

// ErrNoCandidates indicates a model response with no usable text candidate.
var ErrNoCandidates = errors.New("model response contained no candidates")

// GeminiParser parses prompts with Google's generateContent API, rotating
// through the key ring's credentials one request at a time.
type GeminiParser struct {
	baseURL    string
	model      string
	ring       *KeyRing
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiParser creates a parser for the given model. Empty baseURL and
// model fall back to the public API defaults.
func NewGeminiParser(baseURL, model string, ring *KeyRing, timeout time.Duration, logger *slog.Logger) *GeminiParser {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiParser{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		ring:       ring,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Parse sends the prompt to the model and decodes the returned intent JSON.
func (p *GeminiParser) Parse(ctx context.Context, prompt string) (*Intent, error) {
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.ring.Next())

	body, err := json.Marshal(generateContentRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: systemPrompt + "\nUser Input: " + prompt}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	text, err := firstCandidateText(&decoded)
	if err != nil {
		return nil, err
	}

	var in Intent
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &in); err != nil {
		return nil, fmt.Errorf("model produced invalid intent JSON: %w", err)
	}

	p.logger.DebugContext(ctx, "parsed prompt",
		"model", p.model,
		"action", in.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &in, nil
}

// firstCandidateText pulls candidates[0].content.parts[0].text, returning
// ErrNoCandidates when any level of the path is absent.
func firstCandidateText(resp *generateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoCandidates
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// stripCodeFences removes a surrounding markdown code fence, which models
// sometimes emit despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
