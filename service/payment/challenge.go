package payment

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// Challenge is the 402 remediation payload. Error, Address and Amount are
// the contract clients rely on; the rest is convenience for wallet apps.
type Challenge struct {
	Error      string `json:"error"`
	Address    string `json:"address"`
	Amount     uint64 `json:"amount"` // lamports
	Reference  string `json:"reference,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
	QRCodeData string `json:"qr_code_data,omitempty"` // base64 encoded PNG
}

// newChallenge builds the remediation payload for an unpaid request.
func newChallenge(merchant string, amount uint64) Challenge {
	reference := uuid.New().String()
	paymentURL := buildSolanaPayURL(merchant, amount, reference)

	// QR code is optional; an encoding failure never blocks the challenge.
	qrCodeData, err := generateQRCode(paymentURL)
	if err != nil {
		qrCodeData = ""
	}

	return Challenge{
		Error:      "Payment Required",
		Address:    merchant,
		Amount:     amount,
		Reference:  reference,
		PaymentURL: paymentURL,
		QRCodeData: qrCodeData,
	}
}

// buildSolanaPayURL creates a Solana Pay-compatible URL for the payment.
// Format: solana:{recipient}?amount={amount}&memo={memo}&label={label}&message={message}
func buildSolanaPayURL(recipient string, amountLamports uint64, reference string) string {
	// Convert lamports to SOL for the wallet display
	amountSOL := float64(amountLamports) / 1e9

	params := url.Values{}
	params.Set("amount", fmt.Sprintf("%.9f", amountSOL))
	params.Set("memo", reference)
	params.Set("label", "Solana AI Agent")
	params.Set("message", "Payment for agent execution")

	return fmt.Sprintf("solana:%s?%s", recipient, params.Encode())
}

// generateQRCode creates a QR code image from a payment URL and returns it
// as base64-encoded PNG.
func generateQRCode(data string) (string, error) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Encode as PNG (256x256 pixels)
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code as PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
