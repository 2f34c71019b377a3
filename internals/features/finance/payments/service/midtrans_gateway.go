// file: internals/features/finance/payments/service/midtrans_gateway.go
package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/google/uuid"
)

/* =========================================================
   Midtrans Client
========================================================= */

const ProviderMidtrans = "midtrans"

type MidtransGateway struct {
	snapClient snap.Client
	serverKey  string
}

func NewMidtransGateway(serverKey string, useProduction bool) *MidtransGateway {
	g := &MidtransGateway{serverKey: serverKey}
	if useProduction {
		g.snapClient.New(serverKey, midtrans.Production)
	} else {
		g.snapClient.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) Provider() string { return ProviderMidtrans }

// CreateOrder registers a Snap transaction. Midtrans has the merchant pick
// the order id, so one is minted here and echoed back by every callback.
func (g *MidtransGateway) CreateOrder(ctx context.Context, amountINR int64, receipt string) (string, error) {
	if amountINR <= 0 {
		return "", errors.New("amount must be positive")
	}
	orderID := genOrderID(receipt)

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amountINR,
		},
	}
	if _, err := g.snapClient.CreateTransaction(req); err != nil {
		// transport and provider errors are retryable, surface them as such
		return "", fmt.Errorf("%w: midtrans create transaction: %v", ErrGatewayUnavailable, err)
	}
	return orderID, nil
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount +
// server_key) against the signature_key field of the notification.
func (g *MidtransGateway) VerifySignature(in SignatureInput) error {
	if in.OrderID == "" || in.Signature == "" {
		return ErrBadSignature
	}
	sum := sha512.Sum512([]byte(in.OrderID + in.StatusCode + in.GrossAmount + g.serverKey))
	expected := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(in.Signature))) != 1 {
		return ErrBadSignature
	}
	return nil
}

func genOrderID(receipt string) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", receipt, time.Now().Unix(), short)
}
