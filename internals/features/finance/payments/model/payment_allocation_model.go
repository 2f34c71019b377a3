// file: internals/features/finance/payments/model/payment_allocation_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: payment_allocations
================================ */

// PaymentAllocation records how one payment was split across fee items.
// Rows are written in the same transaction as the ledger update; a payment
// either allocates fully or not at all.
type PaymentAllocation struct {
	PaymentAllocationID uuid.UUID `json:"payment_allocation_id" gorm:"column:payment_allocation_id;type:uuid;primaryKey"`

	PaymentAllocationPaymentID uuid.UUID `json:"payment_allocation_payment_id"  gorm:"column:payment_allocation_payment_id;type:uuid;not null;index"`
	PaymentAllocationFeeItemID uuid.UUID `json:"payment_allocation_fee_item_id" gorm:"column:payment_allocation_fee_item_id;type:uuid;not null;index"`

	PaymentAllocationAmountINR int64  `json:"payment_allocation_amount_inr" gorm:"column:payment_allocation_amount_inr;type:bigint;not null;check:payment_allocation_amount_inr>0"`
	PaymentAllocationLabel     string `json:"payment_allocation_label"      gorm:"column:payment_allocation_label;type:varchar(120);not null"`

	PaymentAllocationCreatedAt time.Time `json:"payment_allocation_created_at" gorm:"column:payment_allocation_created_at;not null;default:CURRENT_TIMESTAMP"`
}

func (PaymentAllocation) TableName() string { return "payment_allocations" }

func (m *PaymentAllocation) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentAllocationID == uuid.Nil {
		m.PaymentAllocationID = uuid.New()
	}
	if m.PaymentAllocationCreatedAt.IsZero() {
		m.PaymentAllocationCreatedAt = time.Now()
	}
	return nil
}
