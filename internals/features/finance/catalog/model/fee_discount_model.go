// file: internals/features/finance/catalog/model/fee_discount_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (must match DB)
================================ */

type FeeDiscountType string

const (
	FeeDiscountTypePercentage FeeDiscountType = "percentage"
	FeeDiscountTypeFixed      FeeDiscountType = "fixed"
)

// Rule codes the materializer understands. Anything else is ignored
// (logged, never fatal) so old rows don't break new deployments.
const (
	FeeDiscountRuleAlways        = "always"
	FeeDiscountRuleSecondSibling = "second_sibling"
)

/* ================================
   MODEL: fee_discounts
================================ */

// FeeDiscount attaches a reduction to a fee category. Percentage values are
// stored in basis of whole percent (e.g. 25 = 25%); fixed values are whole INR.
type FeeDiscount struct {
	FeeDiscountID uuid.UUID `json:"fee_discount_id" gorm:"column:fee_discount_id;type:uuid;primaryKey"`

	FeeDiscountCategoryID uuid.UUID `json:"fee_discount_category_id" gorm:"column:fee_discount_category_id;type:uuid;not null;index"`

	FeeDiscountName  string          `json:"fee_discount_name"  gorm:"column:fee_discount_name;type:varchar(80);not null"`
	FeeDiscountType  FeeDiscountType `json:"fee_discount_type"  gorm:"column:fee_discount_type;type:fee_discount_type;not null"`
	FeeDiscountValue int64           `json:"fee_discount_value" gorm:"column:fee_discount_value;type:bigint;not null;check:fee_discount_value>=0"`

	// Applicability rule evaluated against the student at materialization.
	FeeDiscountRule string `json:"fee_discount_rule" gorm:"column:fee_discount_rule;type:varchar(40);not null;default:'always'"`

	FeeDiscountCreatedAt time.Time      `json:"fee_discount_created_at" gorm:"column:fee_discount_created_at;not null;default:CURRENT_TIMESTAMP"`
	FeeDiscountUpdatedAt time.Time      `json:"fee_discount_updated_at" gorm:"column:fee_discount_updated_at;not null;default:CURRENT_TIMESTAMP"`
	FeeDiscountDeletedAt gorm.DeletedAt `json:"-"                       gorm:"column:fee_discount_deleted_at;index"`
}

func (FeeDiscount) TableName() string { return "fee_discounts" }

func (m *FeeDiscount) BeforeCreate(tx *gorm.DB) error {
	if m.FeeDiscountID == uuid.Nil {
		m.FeeDiscountID = uuid.New()
	}
	now := time.Now()
	if m.FeeDiscountCreatedAt.IsZero() {
		m.FeeDiscountCreatedAt = now
	}
	m.FeeDiscountUpdatedAt = now
	return nil
}

func (m *FeeDiscount) BeforeUpdate(tx *gorm.DB) error {
	m.FeeDiscountUpdatedAt = time.Now()
	return nil
}
