// file: internals/features/finance/payments/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (must match DB)
================================ */

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

/* ================================
   MODEL: payments
================================ */

// Payment is one settled (or failed) gateway transaction. The unique index on
// the gateway payment id is what makes verify-and-capture idempotent: a
// replayed webhook or a double-submitted verify finds the row and stops.
type Payment struct {
	PaymentID uuid.UUID `json:"payment_id" gorm:"column:payment_id;type:uuid;primaryKey"`

	PaymentSchoolID        uuid.UUID  `json:"payment_school_id"         gorm:"column:payment_school_id;type:uuid;not null;index"`
	PaymentSchoolStudentID uuid.UUID  `json:"payment_school_student_id" gorm:"column:payment_school_student_id;type:uuid;not null;index"`
	PaymentIntentID        uuid.UUID  `json:"payment_intent_id"         gorm:"column:payment_intent_id;type:uuid;not null;index"`
	PaymentPayerUserID     *uuid.UUID `json:"payment_payer_user_id"     gorm:"column:payment_payer_user_id;type:uuid"`

	PaymentProvider         string `json:"payment_provider"           gorm:"column:payment_provider;type:varchar(20);not null"`
	PaymentGatewayOrderID   string `json:"payment_gateway_order_id"   gorm:"column:payment_gateway_order_id;type:varchar(80);not null;index"`
	PaymentGatewayPaymentID string `json:"payment_gateway_payment_id" gorm:"column:payment_gateway_payment_id;type:varchar(80);not null;uniqueIndex:uq_payments_gateway_payment"`

	PaymentAmountINR int64         `json:"payment_amount_inr" gorm:"column:payment_amount_inr;type:bigint;not null;check:payment_amount_inr>0"`
	PaymentStatus    PaymentStatus `json:"payment_status"     gorm:"column:payment_status;type:payment_status;not null;index"`
	PaymentMethod    *string       `json:"payment_method"     gorm:"column:payment_method;type:varchar(30)"`

	PaymentPaidAt     *time.Time `json:"payment_paid_at"     gorm:"column:payment_paid_at"`
	PaymentRefundedAt *time.Time `json:"payment_refunded_at" gorm:"column:payment_refunded_at"`

	PaymentCreatedAt time.Time      `json:"payment_created_at" gorm:"column:payment_created_at;not null;default:CURRENT_TIMESTAMP"`
	PaymentUpdatedAt time.Time      `json:"payment_updated_at" gorm:"column:payment_updated_at;not null;default:CURRENT_TIMESTAMP"`
	PaymentDeletedAt gorm.DeletedAt `json:"-"                  gorm:"column:payment_deleted_at;index"`
}

func (Payment) TableName() string { return "payments" }

func (m *Payment) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentID == uuid.Nil {
		m.PaymentID = uuid.New()
	}
	now := time.Now()
	if m.PaymentCreatedAt.IsZero() {
		m.PaymentCreatedAt = now
	}
	m.PaymentUpdatedAt = now
	return nil
}

func (m *Payment) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentUpdatedAt = time.Now()
	return nil
}
