// file: internals/features/finance/ledger/model/fee_item_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   Derived ledger status
================================ */

// FeeItemStatus is never stored. It is derived from the row's amounts and
// due date at read time so the ledger can't drift out of sync with payments.
type FeeItemStatus string

const (
	FeeItemStatusPaid     FeeItemStatus = "PAID"
	FeeItemStatusPartial  FeeItemStatus = "PARTIAL"
	FeeItemStatusOverdue  FeeItemStatus = "OVERDUE"
	FeeItemStatusPending  FeeItemStatus = "PENDING"
	FeeItemStatusUpcoming FeeItemStatus = "UPCOMING"
)

/* ================================
   MODEL: fee_items
================================ */

// FeeItem is one payable line on a student's ledger, materialized from a
// published catalog version. Name and amount are snapshots: later catalog
// edits land in a successor version and never rewrite existing rows.
type FeeItem struct {
	FeeItemID uuid.UUID `json:"fee_item_id" gorm:"column:fee_item_id;type:uuid;primaryKey"`

	FeeItemSchoolID        uuid.UUID `json:"fee_item_school_id"         gorm:"column:fee_item_school_id;type:uuid;not null;index"`
	FeeItemSchoolStudentID uuid.UUID `json:"fee_item_school_student_id" gorm:"column:fee_item_school_student_id;type:uuid;not null;index:idx_fee_items_student"`

	// Provenance: the exact catalog version and installment this row came from.
	FeeItemCategoryID    uuid.UUID  `json:"fee_item_category_id"    gorm:"column:fee_item_category_id;type:uuid;not null;index"`
	FeeItemInstallmentID *uuid.UUID `json:"fee_item_installment_id" gorm:"column:fee_item_installment_id;type:uuid;uniqueIndex:uq_fee_items_student_installment,where:fee_item_installment_id IS NOT NULL"`

	FeeItemCategoryName string `json:"fee_item_category_name" gorm:"column:fee_item_category_name;type:varchar(80);not null"`
	FeeItemLabel        string `json:"fee_item_label"         gorm:"column:fee_item_label;type:varchar(120);not null"`

	FeeItemAmountINR     int64 `json:"fee_item_amount_inr"      gorm:"column:fee_item_amount_inr;type:bigint;not null;check:fee_item_amount_inr>=0"`
	FeeItemDiscountINR   int64 `json:"fee_item_discount_inr"    gorm:"column:fee_item_discount_inr;type:bigint;not null;default:0"`
	FeeItemPaidAmountINR int64 `json:"fee_item_paid_amount_inr" gorm:"column:fee_item_paid_amount_inr;type:bigint;not null;default:0;check:fee_item_paid_amount_inr>=0"`

	FeeItemDueDate time.Time `json:"fee_item_due_date" gorm:"column:fee_item_due_date;type:date;not null;index"`

	FeeItemCreatedAt time.Time      `json:"fee_item_created_at" gorm:"column:fee_item_created_at;not null;default:CURRENT_TIMESTAMP"`
	FeeItemUpdatedAt time.Time      `json:"fee_item_updated_at" gorm:"column:fee_item_updated_at;not null;default:CURRENT_TIMESTAMP"`
	FeeItemDeletedAt gorm.DeletedAt `json:"-"                   gorm:"column:fee_item_deleted_at;index"`
}

func (FeeItem) TableName() string { return "fee_items" }

// BalanceINR is the remaining payable on this row.
func (m *FeeItem) BalanceINR() int64 {
	b := m.FeeItemAmountINR - m.FeeItemPaidAmountINR
	if b < 0 {
		return 0
	}
	return b
}

// Status derives the display status at instant now. An unpaid row whose due
// date is still beyond horizon counts as UPCOMING rather than PENDING.
func (m *FeeItem) Status(now time.Time, horizon time.Duration) FeeItemStatus {
	switch {
	case m.FeeItemPaidAmountINR >= m.FeeItemAmountINR:
		return FeeItemStatusPaid
	case m.FeeItemPaidAmountINR > 0:
		return FeeItemStatusPartial
	case m.FeeItemDueDate.Before(now):
		return FeeItemStatusOverdue
	case m.FeeItemDueDate.After(now.Add(horizon)):
		return FeeItemStatusUpcoming
	default:
		return FeeItemStatusPending
	}
}

func (m *FeeItem) BeforeCreate(tx *gorm.DB) error {
	if m.FeeItemID == uuid.Nil {
		m.FeeItemID = uuid.New()
	}
	now := time.Now()
	if m.FeeItemCreatedAt.IsZero() {
		m.FeeItemCreatedAt = now
	}
	m.FeeItemUpdatedAt = now
	return nil
}

func (m *FeeItem) BeforeUpdate(tx *gorm.DB) error {
	m.FeeItemUpdatedAt = time.Now()
	return nil
}
