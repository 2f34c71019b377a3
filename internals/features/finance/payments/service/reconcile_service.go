// file: internals/features/finance/payments/service/reconcile_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	ledgerSvc "schoolku_backend/internals/features/finance/ledger/service"
	model "schoolku_backend/internals/features/finance/payments/model"
	"schoolku_backend/internals/configs"
)

var (
	ErrIntentNotFound       = errors.New("payment intent not found")
	ErrIntentExpired        = errors.New("payment intent expired")
	// ErrIntentFailed: failed is terminal, a fresh intent is the only way out.
	ErrIntentFailed         = errors.New("payment intent already failed")
	ErrEmptyPlan            = errors.New("allocation plan is empty")
	ErrDuplicatePlanItem    = errors.New("allocation plan targets a fee item twice")
	ErrAllocationMismatch   = errors.New("allocation plan total does not match payment amount")
	// ErrInvalidAmount: the caller asked for something the ledger can never
	// honor (non-positive leg, or more than the item's open balance).
	ErrInvalidAmount        = errors.New("invalid payment amount")
	ErrFailureAfterCapture  = errors.New("intent already captured, failure ignored")
	// ErrGatewayUnavailable: the provider could not be reached; the request
	// itself was fine and may be retried as-is.
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	// ErrPaymentNotRefundable: the payment does not exist in this school's
	// scope or never completed.
	ErrPaymentNotRefundable = errors.New("payment not refundable")
)

/* =========================================================
   Allocation plan
========================================================= */

// AllocationEntry is one leg of an allocation plan: pay amount onto item.
type AllocationEntry struct {
	FeeItemID uuid.UUID `json:"fee_item_id"`
	AmountINR int64     `json:"amount_inr"`
}

func planTotal(plan []AllocationEntry) int64 {
	var sum int64
	for _, e := range plan {
		sum += e.AmountINR
	}
	return sum
}

func validatePlan(plan []AllocationEntry) error {
	if len(plan) == 0 {
		return ErrEmptyPlan
	}
	seen := map[uuid.UUID]struct{}{}
	for _, e := range plan {
		if e.AmountINR <= 0 {
			return fmt.Errorf("%w: allocation for %s must be positive", ErrInvalidAmount, e.FeeItemID)
		}
		if _, dup := seen[e.FeeItemID]; dup {
			return ErrDuplicatePlanItem
		}
		seen[e.FeeItemID] = struct{}{}
	}
	return nil
}

/* =========================================================
   Create intent
========================================================= */

type CreateIntentInput struct {
	SchoolID        uuid.UUID
	SchoolStudentID uuid.UUID
	PayerUserID     *uuid.UUID
	Plan            []AllocationEntry
}

// CreateIntent validates the checkout plan against live balances, opens a
// gateway order for the total, and freezes the plan on the intent row so
// capture can run from a webhook alone.
func CreateIntent(ctx context.Context, db *gorm.DB, gw GatewayClient, in CreateIntentInput) (*model.PaymentIntent, error) {
	if err := validatePlan(in.Plan); err != nil {
		return nil, err
	}

	// friendly pre-check; the guarded update at capture is the real defense
	for _, e := range in.Plan {
		var item ledgerModel.FeeItem
		err := db.WithContext(ctx).
			Where("fee_item_id = ? AND fee_item_school_id = ?", e.FeeItemID, in.SchoolID).
			Take(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerSvc.ErrFeeItemNotFound
		}
		if err != nil {
			return nil, err
		}
		if item.FeeItemSchoolStudentID != in.SchoolStudentID {
			return nil, ledgerSvc.ErrFeeItemNotFound
		}
		if e.AmountINR > item.BalanceINR() {
			return nil, fmt.Errorf("%w: %d exceeds open balance %d on fee item %s",
				ErrInvalidAmount, e.AmountINR, item.BalanceINR(), e.FeeItemID)
		}
	}

	total := planTotal(in.Plan)
	receipt := "PI-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	orderID, err := gw.CreateOrder(ctx, total, receipt)
	if err != nil {
		return nil, err
	}

	planJSON, err := json.Marshal(in.Plan)
	if err != nil {
		return nil, err
	}

	intent := model.PaymentIntent{
		PaymentIntentSchoolID:        in.SchoolID,
		PaymentIntentSchoolStudentID: in.SchoolStudentID,
		PaymentIntentPayerUserID:     in.PayerUserID,
		PaymentIntentAmountINR:       total,
		PaymentIntentStatus:          model.PaymentIntentStatusPending,
		PaymentIntentProvider:        gw.Provider(),
		PaymentIntentGatewayOrderID:  orderID,
		PaymentIntentPlan:            planJSON,
		PaymentIntentExpiresAt:       time.Now().Add(configs.IntentTTL()),
	}
	if err := db.WithContext(ctx).Create(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

/* =========================================================
   Verify & capture
========================================================= */

type CaptureInput struct {
	OrderID          string
	GatewayPaymentID string
	Signature        string
	StatusCode       string // midtrans notifications
	GrossAmount      string // midtrans notifications
	Method           *string

	// Optional explicit plan from /payments/verify; nil replays the plan
	// frozen on the intent.
	Plan []AllocationEntry
}

type CaptureResult struct {
	Payment          *model.Payment
	AlreadyProcessed bool
}

// VerifyAndCapture is the entry point for client-side confirmation. The
// gateway signature is checked before anything is read or written; a capture
// is only as real as its signature, the client's word counts for nothing.
func VerifyAndCapture(ctx context.Context, db *gorm.DB, gw GatewayClient, in CaptureInput) (*CaptureResult, error) {
	if err := gw.VerifySignature(SignatureInput{
		OrderID:     in.OrderID,
		PaymentID:   in.GatewayPaymentID,
		Signature:   in.Signature,
		StatusCode:  in.StatusCode,
		GrossAmount: in.GrossAmount,
	}); err != nil {
		log.Printf("[SECURITY] signature mismatch on order %s (gateway payment %s): %v",
			in.OrderID, in.GatewayPaymentID, err)
		// a forged confirmation burns the intent; the payer has to start over
		if _, ferr := HandleFailure(ctx, db, in.OrderID, "signature verification failed"); ferr != nil &&
			!errors.Is(ferr, ErrIntentNotFound) && !errors.Is(ferr, ErrFailureAfterCapture) {
			return nil, ferr
		}
		return nil, err
	}
	return CaptureVerified(ctx, db, gw.Provider(), in)
}

// CaptureVerified settles an already-authenticated gateway payment. Callers
// must have proven authenticity first (VerifyAndCapture, or a webhook whose
// body HMAC checked out). The payment row, its allocations, and every fee
// item update commit in one transaction or not at all; replays with the same
// gateway payment id return the original outcome.
func CaptureVerified(ctx context.Context, db *gorm.DB, provider string, in CaptureInput) (*CaptureResult, error) {
	// fast path for replays, outside the write transaction
	if p, err := findPaymentByGatewayID(ctx, db, in.GatewayPaymentID); err != nil {
		return nil, err
	} else if p != nil {
		return &CaptureResult{Payment: p, AlreadyProcessed: true}, nil
	}

	var result CaptureResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var intent model.PaymentIntent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_gateway_order_id = ?", in.OrderID).
			Take(&intent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIntentNotFound
		}
		if err != nil {
			return err
		}

		switch intent.PaymentIntentStatus {
		case model.PaymentIntentStatusCompleted:
			// a different gateway payment id against a settled order:
			// hand back the original payment rather than double-capture
			p, err := findPaymentByIntent(ctx, tx, intent.PaymentIntentID)
			if err != nil {
				return err
			}
			result = CaptureResult{Payment: p, AlreadyProcessed: true}
			return nil
		case model.PaymentIntentStatusFailed:
			return ErrIntentFailed
		case model.PaymentIntentStatusExpired:
			return ErrIntentExpired
		}
		if time.Now().After(intent.PaymentIntentExpiresAt) {
			return ErrIntentExpired
		}

		plan := in.Plan
		if plan == nil {
			if err := json.Unmarshal(intent.PaymentIntentPlan, &plan); err != nil {
				return fmt.Errorf("frozen plan unreadable: %w", err)
			}
		}
		if err := validatePlan(plan); err != nil {
			return err
		}
		if planTotal(plan) != intent.PaymentIntentAmountINR {
			return ErrAllocationMismatch
		}

		now := time.Now()
		payment := model.Payment{
			PaymentSchoolID:         intent.PaymentIntentSchoolID,
			PaymentSchoolStudentID:  intent.PaymentIntentSchoolStudentID,
			PaymentIntentID:         intent.PaymentIntentID,
			PaymentPayerUserID:      intent.PaymentIntentPayerUserID,
			PaymentProvider:         provider,
			PaymentGatewayOrderID:   in.OrderID,
			PaymentGatewayPaymentID: in.GatewayPaymentID,
			PaymentAmountINR:        intent.PaymentIntentAmountINR,
			PaymentStatus:           model.PaymentStatusCompleted,
			PaymentMethod:           in.Method,
			PaymentPaidAt:           &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		// all-or-nothing: one rejected leg rolls the whole capture back
		for _, e := range plan {
			if err := ledgerSvc.ApplyAllocation(ctx, tx, intent.PaymentIntentSchoolID, e.FeeItemID, e.AmountINR); err != nil {
				return err
			}
			var label string
			if err := tx.Model(&ledgerModel.FeeItem{}).
				Where("fee_item_id = ?", e.FeeItemID).
				Pluck("fee_item_label", &label).Error; err != nil {
				return err
			}
			alloc := model.PaymentAllocation{
				PaymentAllocationPaymentID: payment.PaymentID,
				PaymentAllocationFeeItemID: e.FeeItemID,
				PaymentAllocationAmountINR: e.AmountINR,
				PaymentAllocationLabel:     label,
			}
			if err := tx.Create(&alloc).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.PaymentIntent{}).
			Where("payment_intent_id = ?", intent.PaymentIntentID).
			Updates(map[string]any{
				"payment_intent_status":     model.PaymentIntentStatusCompleted,
				"payment_intent_updated_at": now,
			}).Error; err != nil {
			return err
		}

		result = CaptureResult{Payment: &payment}
		return nil
	})
	if err != nil {
		// a racing capture may have won between the fast path and our insert
		if p, ferr := findPaymentByGatewayID(ctx, db, in.GatewayPaymentID); ferr == nil && p != nil {
			return &CaptureResult{Payment: p, AlreadyProcessed: true}, nil
		}
		return nil, err
	}
	return &result, nil
}

/* =========================================================
   Failure path
========================================================= */

// HandleFailure records a gateway failure on the intent. It never touches
// fee items, and a failure arriving after a successful capture is refused so
// late callbacks can't unwind settled money.
func HandleFailure(ctx context.Context, db *gorm.DB, orderID, reason string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_gateway_order_id = ?", orderID).
			Take(&intent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIntentNotFound
		}
		if err != nil {
			return err
		}

		switch intent.PaymentIntentStatus {
		case model.PaymentIntentStatusCompleted:
			return ErrFailureAfterCapture
		case model.PaymentIntentStatusFailed:
			return nil // repeated failure callbacks are a no-op
		}

		intent.PaymentIntentStatus = model.PaymentIntentStatusFailed
		intent.PaymentIntentFailedReason = &reason
		return tx.Model(&model.PaymentIntent{}).
			Where("payment_intent_id = ?", intent.PaymentIntentID).
			Updates(map[string]any{
				"payment_intent_status":        model.PaymentIntentStatusFailed,
				"payment_intent_failed_reason": reason,
				"payment_intent_updated_at":    time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

/* =========================================================
   Refund path
========================================================= */

// RefundPayment reverses a completed payment: every allocation is backed out
// of the ledger and the payment moves to refunded. A second refund of the same
// payment returns the row untouched. Refunds here are ledger bookkeeping; the
// actual money movement happens on the gateway's dashboard.
func RefundPayment(ctx context.Context, db *gorm.DB, schoolID, paymentID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_id = ? AND payment_school_id = ?", paymentID, schoolID).
			Take(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotRefundable
		}
		if err != nil {
			return err
		}

		switch payment.PaymentStatus {
		case model.PaymentStatusRefunded:
			return nil // already refunded, idempotent
		case model.PaymentStatusCompleted:
			// fall through to the reversal
		default:
			return ErrPaymentNotRefundable
		}

		var allocs []model.PaymentAllocation
		if err := tx.Where("payment_allocation_payment_id = ?", payment.PaymentID).
			Find(&allocs).Error; err != nil {
			return err
		}
		for _, a := range allocs {
			if err := ledgerSvc.ReverseAllocation(ctx, tx, schoolID, a.PaymentAllocationFeeItemID, a.PaymentAllocationAmountINR); err != nil {
				return err
			}
		}

		now := time.Now()
		payment.PaymentStatus = model.PaymentStatusRefunded
		payment.PaymentRefundedAt = &now
		return tx.Model(&model.Payment{}).
			Where("payment_id = ?", payment.PaymentID).
			Updates(map[string]any{
				"payment_status":      model.PaymentStatusRefunded,
				"payment_refunded_at": now,
				"payment_updated_at":  now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

/* =========================================================
   Gateway event audit trail
========================================================= */

// RecordGatewayEvent appends a raw callback to the audit trail. Duplicate
// deliveries hit the dedup index and are silently skipped.
func RecordGatewayEvent(ctx context.Context, db *gorm.DB, ev *model.PaymentGatewayEvent) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev).Error
}

/* =========================================================
   Lookups
========================================================= */

func findPaymentByGatewayID(ctx context.Context, db *gorm.DB, gatewayPaymentID string) (*model.Payment, error) {
	var p model.Payment
	err := db.WithContext(ctx).
		Where("payment_gateway_payment_id = ?", gatewayPaymentID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func findPaymentByIntent(ctx context.Context, db *gorm.DB, intentID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := db.WithContext(ctx).
		Where("payment_intent_id = ? AND payment_status IN ?", intentID,
			[]model.PaymentStatus{model.PaymentStatusCompleted, model.PaymentStatusRefunded}).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
