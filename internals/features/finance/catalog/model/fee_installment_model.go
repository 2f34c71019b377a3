// file: internals/features/finance/catalog/model/fee_installment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: fee_installments
================================ */

// FeeInstallment is one scheduled slice of a category's base amount.
// Across a category the installment amounts must sum to the base amount;
// that is validated at publish time, not here.
type FeeInstallment struct {
	FeeInstallmentID uuid.UUID `json:"fee_installment_id" gorm:"column:fee_installment_id;type:uuid;primaryKey"`

	FeeInstallmentCategoryID uuid.UUID `json:"fee_installment_category_id" gorm:"column:fee_installment_category_id;type:uuid;not null;index"`

	FeeInstallmentSequence  int       `json:"fee_installment_sequence"   gorm:"column:fee_installment_sequence;type:int;not null"`
	FeeInstallmentLabel     string    `json:"fee_installment_label"      gorm:"column:fee_installment_label;type:varchar(60);not null"`
	FeeInstallmentAmountINR int64     `json:"fee_installment_amount_inr" gorm:"column:fee_installment_amount_inr;type:bigint;not null;check:fee_installment_amount_inr>0"`
	FeeInstallmentDueDate   time.Time `json:"fee_installment_due_date"   gorm:"column:fee_installment_due_date;type:date;not null"`

	FeeInstallmentCreatedAt time.Time      `json:"fee_installment_created_at" gorm:"column:fee_installment_created_at;not null;default:CURRENT_TIMESTAMP"`
	FeeInstallmentUpdatedAt time.Time      `json:"fee_installment_updated_at" gorm:"column:fee_installment_updated_at;not null;default:CURRENT_TIMESTAMP"`
	FeeInstallmentDeletedAt gorm.DeletedAt `json:"-"                          gorm:"column:fee_installment_deleted_at;index"`
}

func (FeeInstallment) TableName() string { return "fee_installments" }

func (m *FeeInstallment) BeforeCreate(tx *gorm.DB) error {
	if m.FeeInstallmentID == uuid.Nil {
		m.FeeInstallmentID = uuid.New()
	}
	now := time.Now()
	if m.FeeInstallmentCreatedAt.IsZero() {
		m.FeeInstallmentCreatedAt = now
	}
	m.FeeInstallmentUpdatedAt = now
	return nil
}

func (m *FeeInstallment) BeforeUpdate(tx *gorm.DB) error {
	m.FeeInstallmentUpdatedAt = time.Now()
	return nil
}
