// file: internals/features/finance/ledger/service/ledger_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
)

var (
	ErrFeeItemNotFound = errors.New("fee item not found")
	// ErrOverAllocation: the allocation would push paid past the item amount.
	ErrOverAllocation = errors.New("allocation exceeds fee item balance")
)

// ListFeeItems returns a student's ledger ordered for display: earliest due
// first, id as tie-break so pagination never shuffles equal dates.
func ListFeeItems(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID) ([]ledgerModel.FeeItem, error) {
	var items []ledgerModel.FeeItem
	err := db.WithContext(ctx).
		Where("fee_item_school_id = ? AND fee_item_school_student_id = ?", schoolID, studentID).
		Order("fee_item_due_date ASC, fee_item_id ASC").
		Find(&items).Error
	return items, err
}

// FilterByStatus keeps only items whose derived status is in want. Status is
// computed, not stored, so the filter runs in memory after the fetch.
func FilterByStatus(items []ledgerModel.FeeItem, want ledgerModel.FeeItemStatus, now time.Time, horizon time.Duration) []ledgerModel.FeeItem {
	out := make([]ledgerModel.FeeItem, 0, len(items))
	for _, it := range items {
		if it.Status(now, horizon) == want {
			out = append(out, it)
		}
	}
	return out
}

type Summary struct {
	TotalAmountINR  int64
	TotalPaidINR    int64
	TotalBalanceINR int64

	// Next unsettled obligation: earliest due date among items that still
	// carry a balance, nil when everything is paid off.
	NextDueDate      *time.Time
	NextDueAmountINR int64

	CountByStatus map[ledgerModel.FeeItemStatus]int
}

// Summarize folds a student's ledger into the header totals. Balance is
// always recomputed from amount minus paid; nothing here trusts a cached sum.
func Summarize(items []ledgerModel.FeeItem, now time.Time, horizon time.Duration) Summary {
	s := Summary{CountByStatus: map[ledgerModel.FeeItemStatus]int{}}
	var next *ledgerModel.FeeItem
	for i := range items {
		it := &items[i]
		s.TotalAmountINR += it.FeeItemAmountINR
		s.TotalPaidINR += it.FeeItemPaidAmountINR
		s.TotalBalanceINR += it.BalanceINR()
		s.CountByStatus[it.Status(now, horizon)]++

		if it.BalanceINR() <= 0 {
			continue
		}
		// earliest due date wins, lowest id as the deterministic tie-break
		if next == nil ||
			it.FeeItemDueDate.Before(next.FeeItemDueDate) ||
			(it.FeeItemDueDate.Equal(next.FeeItemDueDate) &&
				bytes.Compare(it.FeeItemID[:], next.FeeItemID[:]) < 0) {
			next = it
		}
	}
	if next != nil {
		due := next.FeeItemDueDate
		s.NextDueDate = &due
		s.NextDueAmountINR = next.BalanceINR()
	}
	return s
}

// ApplyAllocation adds amount to a fee item's paid total inside the caller's
// transaction. The guarded UPDATE is the over-allocation defense: it only
// fires when the new paid total still fits, so a racing writer loses cleanly
// instead of corrupting the row.
func ApplyAllocation(ctx context.Context, tx *gorm.DB, schoolID, feeItemID uuid.UUID, amountINR int64) error {
	if amountINR <= 0 {
		return ErrOverAllocation
	}

	res := tx.WithContext(ctx).
		Model(&ledgerModel.FeeItem{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fee_item_id = ? AND fee_item_school_id = ?", feeItemID, schoolID).
		Where("fee_item_paid_amount_inr + ? <= fee_item_amount_inr", amountINR).
		UpdateColumns(map[string]any{
			"fee_item_paid_amount_inr": gorm.Expr("fee_item_paid_amount_inr + ?", amountINR),
			"fee_item_updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// distinguish missing row from an over-allocation
		var n int64
		if err := tx.WithContext(ctx).Model(&ledgerModel.FeeItem{}).
			Where("fee_item_id = ? AND fee_item_school_id = ?", feeItemID, schoolID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrFeeItemNotFound
		}
		return ErrOverAllocation
	}
	return nil
}

// ReverseAllocation undoes a previously applied allocation (refund path).
// Guarded the same way: the paid total may never drop below zero.
func ReverseAllocation(ctx context.Context, tx *gorm.DB, schoolID, feeItemID uuid.UUID, amountINR int64) error {
	if amountINR <= 0 {
		return ErrOverAllocation
	}

	res := tx.WithContext(ctx).
		Model(&ledgerModel.FeeItem{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fee_item_id = ? AND fee_item_school_id = ?", feeItemID, schoolID).
		Where("fee_item_paid_amount_inr - ? >= 0", amountINR).
		UpdateColumns(map[string]any{
			"fee_item_paid_amount_inr": gorm.Expr("fee_item_paid_amount_inr - ?", amountINR),
			"fee_item_updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.WithContext(ctx).Model(&ledgerModel.FeeItem{}).
			Where("fee_item_id = ? AND fee_item_school_id = ?", feeItemID, schoolID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrFeeItemNotFound
		}
		return ErrOverAllocation
	}
	return nil
}
