// file: internals/features/finance/payments/service/gateway.go
package service

import (
	"context"
	"errors"
)

/* =========================================================
   Gateway abstraction
========================================================= */

// ErrBadSignature is returned when a gateway callback fails cryptographic
// verification. The caller must treat the whole request as untrusted.
var ErrBadSignature = errors.New("gateway signature verification failed")

// SignatureInput carries everything a provider needs to check authenticity.
// Razorpay signs order|payment; Midtrans hashes order+status+amount. Fields
// a provider does not use stay empty.
type SignatureInput struct {
	OrderID     string
	PaymentID   string
	Signature   string
	StatusCode  string // midtrans only
	GrossAmount string // midtrans only, "12000.00" form
}

// GatewayClient is the narrow slice of a payment gateway this subsystem
// needs: open an order, and verify that a callback really came from the
// gateway. The signature check is the sole source of truth for captures;
// client-reported success is never trusted.
type GatewayClient interface {
	Provider() string

	// CreateOrder registers amountINR (whole rupees) with the gateway and
	// returns the gateway order id to hand to the client checkout.
	CreateOrder(ctx context.Context, amountINR int64, receipt string) (string, error)

	// VerifySignature returns ErrBadSignature unless in proves authenticity.
	VerifySignature(in SignatureInput) error
}
