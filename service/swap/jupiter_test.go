package swap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testInputMint  = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testOutputMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testUser       = solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJupiter(t *testing.T, handler http.Handler, apiKey string) *Jupiter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewJupiter(srv.URL, 50, apiKey, 5*time.Second, discardLogger())
}

func TestJupiter_Swap(t *testing.T) {
	quoteJSON := `{"inputMint":"So11111111111111111111111111111111111111112","outAmount":"123456","routePlan":[{"percent":100}]}`

	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, testInputMint.String(), q.Get("inputMint"))
		assert.Equal(t, testOutputMint.String(), q.Get("outputMint"))
		assert.Equal(t, "1500000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		io.WriteString(w, quoteJSON)
	})
	mux.HandleFunc("/v6/swap", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req struct {
			QuoteResponse    json.RawMessage `json:"quoteResponse"`
			UserPublicKey    string          `json:"userPublicKey"`
			WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The quote is passed through untouched.
		assert.JSONEq(t, quoteJSON, string(req.QuoteResponse))
		assert.Equal(t, testUser.String(), req.UserPublicKey)
		assert.True(t, req.WrapAndUnwrapSol)

		json.NewEncoder(w).Encode(map[string]string{"swapTransaction": "c29tZS1zd2FwLXR4"})
	})

	j := newTestJupiter(t, mux, "")
	blob, err := j.Swap(context.Background(), Params{
		InputMint:     testInputMint,
		OutputMint:    testOutputMint,
		Amount:        1_500_000_000,
		UserPublicKey: testUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "c29tZS1zd2FwLXR4", blob)
}

func TestJupiter_SendsAPIKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/v6/swap", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		json.NewEncoder(w).Encode(map[string]string{"swapTransaction": "YmxvYg=="})
	})

	j := newTestJupiter(t, mux, "secret")
	_, err := j.Swap(context.Background(), Params{
		InputMint:     testInputMint,
		OutputMint:    testOutputMint,
		Amount:        1,
		UserPublicKey: testUser,
	})
	require.NoError(t, err)
}

func TestJupiter_QuoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		http.Error(w, "no route found", http.StatusBadRequest)
	})

	j := newTestJupiter(t, mux, "")
	_, err := j.Swap(context.Background(), Params{
		InputMint:     testInputMint,
		OutputMint:    testOutputMint,
		Amount:        1,
		UserPublicKey: testUser,
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "quote", apiErr.Stage)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Msg, "no route found")
}

func TestJupiter_SwapFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/v6/swap", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	j := newTestJupiter(t, mux, "")
	_, err := j.Swap(context.Background(), Params{
		InputMint:     testInputMint,
		OutputMint:    testOutputMint,
		Amount:        1,
		UserPublicKey: testUser,
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "swap", apiErr.Stage)
}

func TestJupiter_MissingSwapTransaction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/v6/swap", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		io.WriteString(w, `{"unexpected":"shape"}`)
	})

	j := newTestJupiter(t, mux, "")
	_, err := j.Swap(context.Background(), Params{
		InputMint:     testInputMint,
		OutputMint:    testOutputMint,
		Amount:        1,
		UserPublicKey: testUser,
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "swap", apiErr.Stage)
	assert.Contains(t, apiErr.Msg, "swapTransaction")
}
