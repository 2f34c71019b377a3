// file: internals/features/finance/receipts/model/receipt_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ================================
   MODEL: receipts
================================ */

// Receipt is the immutable proof of one completed payment. Everything shown
// on it comes from the jsonb snapshot frozen at generation; later edits to
// schools, students, or the catalog never change an issued receipt.
type Receipt struct {
	ReceiptID uuid.UUID `json:"receipt_id" gorm:"column:receipt_id;type:uuid;primaryKey"`

	ReceiptSchoolID        uuid.UUID `json:"receipt_school_id"         gorm:"column:receipt_school_id;type:uuid;not null;index;uniqueIndex:uq_receipts_school_number,priority:1"`
	ReceiptSchoolStudentID uuid.UUID `json:"receipt_school_student_id" gorm:"column:receipt_school_student_id;type:uuid;not null;index"`
	ReceiptPaymentID       uuid.UUID `json:"receipt_payment_id"        gorm:"column:receipt_payment_id;type:uuid;not null;uniqueIndex:uq_receipts_payment"`

	// e.g. RCP-1042-000037, unique within a school
	ReceiptNumber string `json:"receipt_number" gorm:"column:receipt_number;type:varchar(40);not null;uniqueIndex:uq_receipts_school_number,priority:2"`

	ReceiptAmountINR int64          `json:"receipt_amount_inr" gorm:"column:receipt_amount_inr;type:bigint;not null"`
	ReceiptSnapshot  datatypes.JSON `json:"receipt_snapshot"   gorm:"column:receipt_snapshot;type:jsonb;not null"`

	ReceiptIssuedAt  time.Time `json:"receipt_issued_at"  gorm:"column:receipt_issued_at;not null;default:CURRENT_TIMESTAMP"`
	ReceiptCreatedAt time.Time `json:"receipt_created_at" gorm:"column:receipt_created_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Receipt) TableName() string { return "receipts" }

func (m *Receipt) BeforeCreate(tx *gorm.DB) error {
	if m.ReceiptID == uuid.Nil {
		m.ReceiptID = uuid.New()
	}
	now := time.Now()
	if m.ReceiptIssuedAt.IsZero() {
		m.ReceiptIssuedAt = now
	}
	if m.ReceiptCreatedAt.IsZero() {
		m.ReceiptCreatedAt = now
	}
	return nil
}
