package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/michealimuse777/solana-ai-agent/service/metrics"
)

// HeaderPaymentSig is the request header carrying the payment proof.
const HeaderPaymentSig = "X-Payment-Sig"

// DefaultVerifyTimeout bounds the ledger lookup per request.
const DefaultVerifyTimeout = 5 * time.Second

// TransactionVerifier confirms a payment signature against the ledger.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, sig solana.Signature) error
}

// GateConfig carries the gate's tunables.
type GateConfig struct {
	// MerchantAddress receives payments and is advertised in 402 responses.
	MerchantAddress string

	// PriceLamports is the advertised price per request.
	PriceLamports uint64

	// BypassToken, when non-empty, is accepted in place of a real signature.
	// Left empty in production deployments.
	BypassToken string

	// VerifyTimeout bounds each ledger lookup. Zero means
	// DefaultVerifyTimeout.
	VerifyTimeout time.Duration
}

// Gate is middleware that rejects unpaid requests with a 402 challenge.
// Decisions are made per request; the gate retains no state between them
// beyond the optional proof ledger.
type Gate struct {
	cfg      GateConfig
	verifier TransactionVerifier
	ledger   ProofLedger // nil disables replay protection
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewGate creates a payment gate. A nil ledger disables replay protection;
// a nil m disables metrics.
func NewGate(cfg GateConfig, verifier TransactionVerifier, ledger ProofLedger, m *metrics.Metrics, logger *slog.Logger) *Gate {
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = DefaultVerifyTimeout
	}
	return &Gate{
		cfg:      cfg,
		verifier: verifier,
		ledger:   ledger,
		logger:   logger,
		metrics:  m,
	}
}

// Middleware wraps next, admitting only requests that carry a valid payment
// proof. CORS preflights pass through unchecked.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		sigHeader := r.Header.Get(HeaderPaymentSig)
		if sigHeader == "" {
			g.record("missing")
			g.reject(w, r)
			return
		}

		if g.cfg.BypassToken != "" && sigHeader == g.cfg.BypassToken {
			g.logger.DebugContext(r.Context(), "payment bypassed with dev token")
			g.record("bypass")
			next.ServeHTTP(w, r)
			return
		}

		sig, err := solana.SignatureFromBase58(sigHeader)
		if err != nil {
			g.record("malformed")
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid payment signature",
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), g.cfg.VerifyTimeout)
		defer cancel()
		if err := g.verifier.VerifyTransaction(ctx, sig); err != nil {
			g.logger.InfoContext(r.Context(), "payment verification failed",
				"signature", sig.String(),
				"error", err,
			)
			g.record("rejected")
			g.reject(w, r)
			return
		}

		if g.ledger != nil {
			fresh, err := g.ledger.Consume(r.Context(), sig.String())
			if err != nil {
				// The proof itself verified; a ledger outage does not
				// turn paid requests away.
				g.logger.WarnContext(r.Context(), "proof ledger unavailable, admitting verified payment",
					"error", err,
				)
			} else if !fresh {
				g.logger.InfoContext(r.Context(), "payment signature replayed",
					"signature", sig.String(),
				)
				g.record("replayed")
				g.reject(w, r)
				return
			}
		}

		g.record("admitted")
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusPaymentRequired, newChallenge(g.cfg.MerchantAddress, g.cfg.PriceLamports))
}

func (g *Gate) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordPaymentCheck(outcome)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
