package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/michealimuse777/solana-ai-agent/service/config"
	"github.com/michealimuse777/solana-ai-agent/service/intent"
	"github.com/michealimuse777/solana-ai-agent/service/metrics"
	"github.com/michealimuse777/solana-ai-agent/service/registry"
	"github.com/michealimuse777/solana-ai-agent/service/swap"
	"github.com/michealimuse777/solana-ai-agent/service/txbuild"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB - plenty for a prompt
	maxAddressLength   = 100     // Solana addresses are 44 chars, give buffer

	// Action labels surfaced in the response. MINT_NFT keeps the legacy
	// wire spelling.
	actionTransfer = "TRANSFER"
	actionSwap     = "SWAP"
	actionMintNFT  = "MINT_NFT"
	actionError    = "ERROR"

	defaultNFTName = "AI Gen"
	nftSymbol      = "AI"
	nftMetadataURI = "https://arweave.net/placeholder"
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// executeRequest is the body of POST /agent/execute.
type executeRequest struct {
	Prompt     string `json:"prompt"`
	UserPubkey string `json:"user_pubkey"`
	Network    string `json:"network"` // "devnet" (default) or "mainnet"
}

// executeResponse is the wire shape for every execute outcome, errors
// included. TxBase64 is null for actions that produce no transaction.
type executeResponse struct {
	ActionType string  `json:"action_type"`
	TxBase64   *string `json:"tx_base64"`
	Meta       any     `json:"meta"`
	Message    string  `json:"message"`
}

// handleAgentExecute returns the handler that turns a prompt into an
// unsigned transaction. POST /agent/execute
func handleAgentExecute(cfg *config.Config, parser intent.Parser, provider swap.Provider, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Limit request body size to prevent memory exhaustion
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode execute request", "error", err)
			if strings.Contains(err.Error(), "http: request body too large") {
				writeActionError(w, http.StatusBadRequest, "request body too large: maximum size is 1MB")
				return
			}
			writeActionError(w, http.StatusBadRequest, "invalid request body: must be valid JSON")
			return
		}

		if strings.TrimSpace(req.Prompt) == "" {
			writeActionError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		if err := validateAddress(req.UserPubkey); err != nil {
			logger.Debug("invalid user pubkey", "pubkey", req.UserPubkey, "error", err)
			writeActionError(w, http.StatusBadRequest, fmt.Sprintf("invalid user_pubkey: %v", err))
			return
		}
		if req.Network == "" {
			req.Network = "devnet"
		}
		if err := validateNetwork(req.Network); err != nil {
			writeActionError(w, http.StatusBadRequest, err.Error())
			return
		}

		parseCtx, cancel := context.WithTimeout(r.Context(), cfg.IntentTimeout)
		defer cancel()

		start := time.Now()
		in, err := parser.Parse(parseCtx, req.Prompt)
		if m != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			m.RecordIntentParse(status, time.Since(start).Seconds())
		}
		if err != nil {
			logger.Error("intent parse failed", "error", err)
			writeActionError(w, http.StatusInternalServerError, "failed to interpret prompt")
			return
		}

		cmd, err := in.Command()
		if err != nil {
			logger.Debug("intent validation failed", "action", in.Action, "error", err)
			writeActionError(w, http.StatusBadRequest, commandErrorMessage(err))
			return
		}

		resp, status := dispatch(r.Context(), cfg, provider, m, logger, cmd, req.UserPubkey, req.Network)
		if m != nil {
			outcome := "success"
			if resp.ActionType == actionError {
				outcome = "error"
			}
			m.RecordAgentAction(string(cmd.Action()), req.Network, outcome)
		}
		writeJSON(w, resp, status)
	})
}

// dispatch routes a validated command to the builder, the swap pipeline, or
// the mint metadata responder.
func dispatch(ctx context.Context, cfg *config.Config, provider swap.Provider, m *metrics.Metrics, logger *slog.Logger, cmd intent.Command, userPubkey, network string) (executeResponse, int) {
	switch c := cmd.(type) {
	case intent.TransferCommand:
		return handleTransfer(logger, c, userPubkey, network)
	case intent.SwapCommand:
		return handleSwap(ctx, cfg, provider, m, logger, c, userPubkey, network)
	case intent.MintNFTCommand:
		return handleMintNFT(c)
	default:
		return actionErrorResponse("Unknown Action"), http.StatusBadRequest
	}
}

func handleTransfer(logger *slog.Logger, cmd intent.TransferCommand, userPubkey, network string) (executeResponse, int) {
	reg := registry.ForNetwork(network)

	tok, err := reg.Resolve(cmd.Token)
	if err != nil {
		// A symbol with a mainnet issuance but none on this network gets
		// the rehearsal transaction instead of a hard failure.
		if network != "mainnet" && registry.ForNetwork("mainnet").IsSupported(cmd.Token) {
			return mockTransferResponse(actionTransfer, userPubkey,
				fmt.Sprintf("%s has no %s issuance; returning mock self-transfer for rehearsal", strings.ToUpper(cmd.Token), network))
		}
		return actionErrorResponse(err.Error()), http.StatusBadRequest
	}

	var tx *solanago.Transaction
	if tok.Native {
		tx, err = txbuild.NativeTransfer(userPubkey, cmd.Recipient, cmd.Amount)
	} else {
		var atomic uint64
		atomic, err = registry.ToAtomic(cmd.Amount, tok.Decimals)
		if err == nil {
			tx, err = txbuild.TokenTransfer(userPubkey, cmd.Recipient, tok.Mint.String(), atomic)
		}
	}
	if err != nil {
		logger.Debug("transfer build failed", "token", tok.Symbol, "error", err)
		return actionErrorResponse(buildErrorMessage(err)), http.StatusBadRequest
	}

	blob, err := txbuild.EncodeBase64(tx)
	if err != nil {
		return actionErrorResponse(buildErrorMessage(err)), http.StatusBadRequest
	}

	return executeResponse{
		ActionType: actionTransfer,
		TxBase64:   &blob,
		Message:    fmt.Sprintf("Transfer %v %s to %s. Sign and submit to execute.", cmd.Amount, tok.Symbol, cmd.Recipient),
	}, http.StatusOK
}

func handleSwap(ctx context.Context, cfg *config.Config, provider swap.Provider, m *metrics.Metrics, logger *slog.Logger, cmd intent.SwapCommand, userPubkey, network string) (executeResponse, int) {
	if network != "mainnet" {
		return mockTransferResponse(actionSwap, userPubkey,
			"Devnet Mode: Returning Mock Swap Transaction (Self-Transfer)")
	}

	reg := registry.ForNetwork(network)
	tokenIn, err := reg.Resolve(cmd.TokenIn)
	if err != nil {
		return actionErrorResponse(err.Error()), http.StatusBadRequest
	}
	tokenOut, err := reg.Resolve(cmd.TokenOut)
	if err != nil {
		return actionErrorResponse(err.Error()), http.StatusBadRequest
	}

	user, err := solanago.PublicKeyFromBase58(userPubkey)
	if err != nil {
		return actionErrorResponse(fmt.Sprintf("invalid user_pubkey: %v", err)), http.StatusBadRequest
	}

	atomic, err := registry.ToAtomic(cmd.Amount, tokenIn.Decimals)
	if err != nil {
		return actionErrorResponse(err.Error()), http.StatusBadRequest
	}

	swapCtx, cancel := context.WithTimeout(ctx, cfg.SwapTimeout)
	defer cancel()

	blob, err := provider.Swap(swapCtx, swap.Params{
		InputMint:     tokenIn.Mint,
		OutputMint:    tokenOut.Mint,
		Amount:        atomic,
		UserPublicKey: user,
	})
	if err != nil {
		logger.Warn("swap provider failed", "error", err)
		if m != nil {
			stage := "request"
			var apiErr *swap.APIError
			if errors.As(err, &apiErr) {
				stage = apiErr.Stage
			}
			m.RecordSwapProviderCall(stage, "error")
		}
		return actionErrorResponse(swapErrorMessage(err)), http.StatusBadRequest
	}
	if m != nil {
		m.RecordSwapProviderCall("swap", "success")
	}

	// Fee injection is best-effort: a bundler failure never loses the swap.
	bundled, err := txbuild.AppendFee(blob, userPubkey, cfg.FeeWalletAddress, cfg.FeeAmountLamports)
	feeResult := "appended"
	if err != nil {
		logger.Warn("fee bundling failed, returning unmodified swap transaction", "error", err)
		bundled = blob
		feeResult = "fallback"
	} else if bundled == blob {
		feeResult = "skipped"
	}
	if m != nil {
		m.RecordFeeAppend(feeResult)
	}

	return executeResponse{
		ActionType: actionSwap,
		TxBase64:   &bundled,
		Message:    fmt.Sprintf("Swap %v %s for %s. Sign and submit to execute.", cmd.Amount, tokenIn.Symbol, tokenOut.Symbol),
	}, http.StatusOK
}

// handleMintNFT returns mint metadata only; minting itself is a client-side
// workflow and no transaction is constructed here.
func handleMintNFT(cmd intent.MintNFTCommand) (executeResponse, int) {
	name := cmd.Name
	if name == "" {
		name = defaultNFTName
	}
	return executeResponse{
		ActionType: actionMintNFT,
		Meta: map[string]string{
			"name":   name,
			"symbol": nftSymbol,
			"uri":    nftMetadataURI,
		},
		Message: fmt.Sprintf("Prepared NFT metadata for %q. Minting happens in your wallet.", name),
	}, http.StatusOK
}

func mockTransferResponse(actionType, userPubkey, message string) (executeResponse, int) {
	tx, err := txbuild.MockTransfer(userPubkey)
	if err != nil {
		return actionErrorResponse(buildErrorMessage(err)), http.StatusBadRequest
	}
	blob, err := txbuild.EncodeBase64(tx)
	if err != nil {
		return actionErrorResponse(buildErrorMessage(err)), http.StatusBadRequest
	}
	return executeResponse{
		ActionType: actionType,
		TxBase64:   &blob,
		Message:    message,
	}, http.StatusOK
}

func actionErrorResponse(message string) executeResponse {
	return executeResponse{
		ActionType: actionError,
		Message:    message,
	}
}

// commandErrorMessage maps intent validation failures to user-facing text.
func commandErrorMessage(err error) string {
	var unknown *intent.UnknownActionError
	switch {
	case errors.Is(err, intent.ErrMissingRecipient):
		return "transfer requires a recipient address"
	case errors.As(err, &unknown):
		return "Unknown Action"
	default:
		return err.Error()
	}
}

// buildErrorMessage maps builder and codec failures to user-facing text.
func buildErrorMessage(err error) string {
	var invalidAddr *txbuild.InvalidAddressError
	if errors.As(err, &invalidAddr) {
		return fmt.Sprintf("invalid %s address", invalidAddr.Field)
	}
	var serErr *txbuild.SerializationError
	if errors.As(err, &serErr) {
		return "failed to serialize transaction"
	}
	return err.Error()
}

func swapErrorMessage(err error) string {
	var apiErr *swap.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("swap provider %s failed", apiErr.Stage)
	}
	return err.Error()
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeActionError writes an error in the execute response shape.
func writeActionError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, actionErrorResponse(message), statusCode)
}

// validateAddress validates a wallet address for security and format.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}

	if len(address) > maxAddressLength {
		return errorf("address too long: maximum length is %d characters", maxAddressLength)
	}

	// Check for null bytes and control characters
	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in address: control characters not allowed")
		}
	}

	if !validAddressRegex.MatchString(address) {
		return errorf("invalid address format: must contain only valid base58 characters")
	}

	// Must decode to a 32-byte public key
	if _, err := solanago.PublicKeyFromBase58(address); err != nil {
		return errorf("invalid address: %v", err)
	}

	return nil
}

// validateNetwork validates a network parameter.
func validateNetwork(network string) error {
	if network != "mainnet" && network != "devnet" {
		return errorf("invalid network: must be 'mainnet' or 'devnet'")
	}
	return nil
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
