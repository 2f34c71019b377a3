// file: internals/features/finance/payments/service/razorpay_gateway.go
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

/* =========================================================
   Razorpay Client
========================================================= */

const ProviderRazorpay = "razorpay"

type RazorpayGateway struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

func (g *RazorpayGateway) Provider() string { return ProviderRazorpay }

// CreateOrder opens a Razorpay order. Razorpay wants paise, the ledger holds
// whole rupees, so the amount is scaled here and only here.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountINR int64, receipt string) (string, error) {
	if amountINR <= 0 {
		return "", errors.New("amount must be positive")
	}
	data := map[string]interface{}{
		"amount":   amountINR * 100,
		"currency": "INR",
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		// transport and provider errors are retryable, surface them as such
		return "", fmt.Errorf("%w: razorpay order create: %v", ErrGatewayUnavailable, err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", errors.New("razorpay order create: missing order id")
	}
	return id, nil
}

// VerifySignature checks HMAC-SHA256(orderID + "|" + paymentID, keySecret)
// against the signature Razorpay sent. Comparison is constant-time.
func (g *RazorpayGateway) VerifySignature(in SignatureInput) error {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(in.OrderID + "|" + in.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(in.Signature)) {
		return ErrBadSignature
	}
	return nil
}
