// file: internals/features/finance/receipts/service/receipt_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	paymentModel "schoolku_backend/internals/features/finance/payments/model"
	model "schoolku_backend/internals/features/finance/receipts/model"
	schoolModel "schoolku_backend/internals/features/school/tenants/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotCompleted  = errors.New("receipt requires a completed payment")
	ErrSnapshotInconsistent = errors.New("payment allocations do not add up to the payment amount")
)

/* =========================================================
   Snapshot layout (frozen as jsonb on the receipt row)
========================================================= */

type SnapshotSchool struct {
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
}

type SnapshotStudent struct {
	Name string  `json:"name"`
	Code *string `json:"code,omitempty"`
}

type SnapshotLine struct {
	Label     string `json:"label"`
	AmountINR int64  `json:"amount_inr"`
}

type Snapshot struct {
	ReceiptNumber string          `json:"receipt_number"`
	IssuedAt      time.Time       `json:"issued_at"`
	School        SnapshotSchool  `json:"school"`
	Student       SnapshotStudent `json:"student"`

	Provider         string     `json:"provider"`
	GatewayOrderID   string     `json:"gateway_order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	Method           *string    `json:"method,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`

	Lines    []SnapshotLine `json:"lines"`
	TotalINR int64          `json:"total_inr"`
}

/* =========================================================
   Generate
========================================================= */

// Generate issues the receipt for a completed payment, or returns the one
// already issued. The allocation total is asserted against the payment
// amount before anything is written: a receipt must never show numbers the
// ledger doesn't back.
func Generate(ctx context.Context, db *gorm.DB, schoolID, paymentID uuid.UUID) (*model.Receipt, error) {
	var out *model.Receipt
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Receipt
		err := tx.
			Where("receipt_payment_id = ? AND receipt_school_id = ?", paymentID, schoolID).
			Take(&existing).Error
		if err == nil {
			out = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var payment paymentModel.Payment
		err = tx.
			Where("payment_id = ? AND payment_school_id = ?", paymentID, schoolID).
			Take(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if payment.PaymentStatus != paymentModel.PaymentStatusCompleted {
			return ErrPaymentNotCompleted
		}

		var allocs []paymentModel.PaymentAllocation
		if err := tx.
			Where("payment_allocation_payment_id = ?", payment.PaymentID).
			Order("payment_allocation_created_at ASC").
			Find(&allocs).Error; err != nil {
			return err
		}
		var lines []SnapshotLine
		var total int64
		for _, a := range allocs {
			lines = append(lines, SnapshotLine{Label: a.PaymentAllocationLabel, AmountINR: a.PaymentAllocationAmountINR})
			total += a.PaymentAllocationAmountINR
		}
		if total != payment.PaymentAmountINR {
			return ErrSnapshotInconsistent
		}

		var school schoolModel.School
		if err := tx.Take(&school, "school_id = ?", schoolID).Error; err != nil {
			return fmt.Errorf("load school: %w", err)
		}
		var student studentModel.SchoolStudent
		if err := tx.Take(&student, "school_student_id = ?", payment.PaymentSchoolStudentID).Error; err != nil {
			return fmt.Errorf("load student: %w", err)
		}

		number, err := nextReceiptNumber(tx, school)
		if err != nil {
			return err
		}

		now := time.Now()
		snap := Snapshot{
			ReceiptNumber: number,
			IssuedAt:      now,
			School: SnapshotSchool{
				Name:    school.SchoolName,
				Address: school.SchoolAddress,
				Phone:   school.SchoolPhone,
				Email:   school.SchoolEmail,
			},
			Student: SnapshotStudent{
				Name: student.SchoolStudentName,
				Code: student.SchoolStudentCode,
			},
			Provider:         payment.PaymentProvider,
			GatewayOrderID:   payment.PaymentGatewayOrderID,
			GatewayPaymentID: payment.PaymentGatewayPaymentID,
			Method:           payment.PaymentMethod,
			PaidAt:           payment.PaymentPaidAt,
			Lines:            lines,
			TotalINR:         total,
		}
		snapJSON, err := json.Marshal(snap)
		if err != nil {
			return err
		}

		receipt := model.Receipt{
			ReceiptSchoolID:        schoolID,
			ReceiptSchoolStudentID: payment.PaymentSchoolStudentID,
			ReceiptPaymentID:       payment.PaymentID,
			ReceiptNumber:          number,
			ReceiptAmountINR:       total,
			ReceiptSnapshot:        snapJSON,
			ReceiptIssuedAt:        now,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}
		out = &receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nextReceiptNumber assigns RCP-<school number>-<seq> with a per-school
// counter. The count runs under the caller's transaction with the receipts
// rows locked, so two concurrent generations can't share a sequence.
func nextReceiptNumber(tx *gorm.DB, school schoolModel.School) (string, error) {
	var n int64
	err := tx.Model(&model.Receipt{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("receipt_school_id = ?", school.SchoolID).
		Count(&n).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RCP-%d-%06d", school.SchoolNumber, n+1), nil
}

// ParseSnapshot rehydrates the frozen snapshot for rendering.
func ParseSnapshot(r *model.Receipt) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(r.ReceiptSnapshot, &s); err != nil {
		return nil, fmt.Errorf("receipt snapshot unreadable: %w", err)
	}
	return &s, nil
}
