// file: internals/features/finance/payments/controller/payment_webhook_controller.go
package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	model "schoolku_backend/internals/features/finance/payments/model"
	svc "schoolku_backend/internals/features/finance/payments/service"
	helper "schoolku_backend/internals/helpers"
)

/* =======================================================
   WEBHOOKS (PUBLIC, SIGNATURE-GATED)
======================================================= */

type WebhookController struct {
	DB *gorm.DB
}

func NewWebhookController(db *gorm.DB) *WebhookController {
	return &WebhookController{DB: db}
}

/* ---------------- Razorpay ---------------- */

type razorpayWebhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Method           string `json:"method"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// POST /api/public/payments/webhooks/razorpay
// Razorpay signs the raw body with the webhook secret (X-Razorpay-Signature).
// An unverifiable delivery is logged to the audit trail and rejected; it
// never reaches capture.
func (ctl *WebhookController) RazorpayWebhook(c *fiber.Ctx) error {
	raw := c.Body()
	sig := strings.TrimSpace(c.Get("X-Razorpay-Signature"))

	mac := hmac.New(sha256.New, []byte(configs.RazorpayWebhookSecret))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	sigOK := sig != "" && hmac.Equal([]byte(expected), []byte(sig))

	var body razorpayWebhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payload")
	}
	ent := body.Payload.Payment.Entity

	_ = svc.RecordGatewayEvent(c.Context(), ctl.DB, &model.PaymentGatewayEvent{
		PaymentGatewayEventProvider:    svc.ProviderRazorpay,
		PaymentGatewayEventPaymentID:   ent.ID,
		PaymentGatewayEventType:        body.Event,
		PaymentGatewayEventOrderID:     ent.OrderID,
		PaymentGatewayEventSignatureOK: sigOK,
		PaymentGatewayEventPayload:     raw,
	})

	if !sigOK {
		log.Printf("[WEBHOOK] razorpay signature rejected (event: %s, order: %s)", body.Event, ent.OrderID)
		return helper.JsonError(c, http.StatusBadRequest, "signature verification failed")
	}

	switch body.Event {
	case "payment.captured":
		var method *string
		if ent.Method != "" {
			method = &ent.Method
		}
		res, err := svc.CaptureVerified(c.Context(), ctl.DB, svc.ProviderRazorpay, svc.CaptureInput{
			OrderID:          ent.OrderID,
			GatewayPaymentID: ent.ID,
			Method:           method,
		})
		if err != nil {
			return ctl.webhookErr(c, err)
		}
		if res.AlreadyProcessed {
			return helper.JsonOK(c, "already processed", fiber.Map{"payment_id": res.Payment.PaymentID})
		}
		return helper.JsonOK(c, "captured", fiber.Map{"payment_id": res.Payment.PaymentID})

	case "payment.failed":
		reason := ent.ErrorDescription
		if reason == "" {
			reason = "payment failed at gateway"
		}
		if _, err := svc.HandleFailure(c.Context(), ctl.DB, ent.OrderID, reason); err != nil {
			return ctl.webhookErr(c, err)
		}
		return helper.JsonOK(c, "failure recorded", nil)
	}

	// unhandled event types are acknowledged so the gateway stops retrying
	return helper.JsonOK(c, "ignored", nil)
}

/* ---------------- Midtrans ---------------- */

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	StatusMessage     string `json:"status_message"`
}

// POST /api/public/payments/webhooks/midtrans
// Midtrans hashes order_id + status_code + gross_amount + server_key; only a
// matching signature_key is believed.
func (ctl *WebhookController) MidtransWebhook(c *fiber.Ctx) error {
	raw := c.Body()

	var n midtransNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payload")
	}

	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + configs.MidtransServerKey))
	expected := hex.EncodeToString(sum[:])
	sigOK := n.SignatureKey != "" &&
		subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) == 1

	_ = svc.RecordGatewayEvent(c.Context(), ctl.DB, &model.PaymentGatewayEvent{
		PaymentGatewayEventProvider:    svc.ProviderMidtrans,
		PaymentGatewayEventPaymentID:   n.TransactionID,
		PaymentGatewayEventType:        n.TransactionStatus,
		PaymentGatewayEventOrderID:     n.OrderID,
		PaymentGatewayEventSignatureOK: sigOK,
		PaymentGatewayEventPayload:     raw,
	})

	if !sigOK {
		log.Printf("[WEBHOOK] midtrans signature rejected (order: %s, status: %s)", n.OrderID, n.TransactionStatus)
		return helper.JsonError(c, http.StatusBadRequest, "signature verification failed")
	}

	switch n.TransactionStatus {
	case "capture", "settlement":
		if n.FraudStatus == "challenge" || n.FraudStatus == "deny" {
			return helper.JsonOK(c, "held for review", nil)
		}
		var method *string
		if n.PaymentType != "" {
			method = &n.PaymentType
		}
		res, err := svc.CaptureVerified(c.Context(), ctl.DB, svc.ProviderMidtrans, svc.CaptureInput{
			OrderID:          n.OrderID,
			GatewayPaymentID: n.TransactionID,
			Method:           method,
		})
		if err != nil {
			return ctl.webhookErr(c, err)
		}
		return helper.JsonOK(c, "captured", fiber.Map{"payment_id": res.Payment.PaymentID})

	case "deny", "cancel", "expire", "failure":
		reason := n.StatusMessage
		if reason == "" {
			reason = "transaction " + n.TransactionStatus
		}
		if _, err := svc.HandleFailure(c.Context(), ctl.DB, n.OrderID, reason); err != nil {
			return ctl.webhookErr(c, err)
		}
		return helper.JsonOK(c, "failure recorded", nil)
	}

	return helper.JsonOK(c, "ignored", nil)
}

func (ctl *WebhookController) webhookErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, svc.ErrIntentNotFound):
		// acknowledge unknown orders; retrying won't make them known
		return helper.JsonOK(c, "unknown order, ignored", nil)
	case errors.Is(err, svc.ErrFailureAfterCapture):
		return helper.JsonOK(c, "already captured, failure ignored", nil)
	case errors.Is(err, svc.ErrIntentExpired),
		errors.Is(err, svc.ErrIntentFailed):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	}
	log.Printf("[WEBHOOK] capture failed: %v", err)
	return helper.JsonError(c, http.StatusInternalServerError, "webhook processing failed")
}
