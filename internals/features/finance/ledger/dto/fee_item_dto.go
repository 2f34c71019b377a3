// file: internals/features/finance/ledger/dto/fee_item_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
)

////////////////////////////////////////////////////////////////////////////////
// FEE ITEM — DTO
////////////////////////////////////////////////////////////////////////////////

// Response (status & balance are derived at read time, never stored)
type FeeItemResponse struct {
	FeeItemID              uuid.UUID `json:"fee_item_id"`
	FeeItemSchoolID        uuid.UUID `json:"fee_item_school_id"`
	FeeItemSchoolStudentID uuid.UUID `json:"fee_item_school_student_id"`

	FeeItemCategoryID   uuid.UUID `json:"fee_item_category_id"`
	FeeItemCategoryName string    `json:"fee_item_category_name"`
	FeeItemLabel        string    `json:"fee_item_label"`

	FeeItemAmountINR     int64 `json:"fee_item_amount_inr"`
	FeeItemDiscountINR   int64 `json:"fee_item_discount_inr"`
	FeeItemPaidAmountINR int64 `json:"fee_item_paid_amount_inr"`
	FeeItemBalanceINR    int64 `json:"fee_item_balance_inr"`

	FeeItemDueDate time.Time                 `json:"fee_item_due_date"`
	FeeItemStatus  ledgerModel.FeeItemStatus `json:"fee_item_status"`

	FeeItemCreatedAt time.Time `json:"fee_item_created_at"`
	FeeItemUpdatedAt time.Time `json:"fee_item_updated_at"`
}

// Summary for one student's ledger
type LedgerSummaryResponse struct {
	SchoolStudentID uuid.UUID `json:"school_student_id"`

	TotalAmountINR  int64 `json:"total_amount_inr"`
	TotalPaidINR    int64 `json:"total_paid_inr"`
	TotalBalanceINR int64 `json:"total_balance_inr"`

	NextDueDate      *time.Time `json:"next_due_date,omitempty"`
	NextDueAmountINR int64      `json:"next_due_amount_inr"`

	CountByStatus map[ledgerModel.FeeItemStatus]int `json:"count_by_status"`
	OverdueCount  int                               `json:"overdue_count"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS
////////////////////////////////////////////////////////////////////////////////

func ToFeeItemResponse(m ledgerModel.FeeItem, now time.Time, horizon time.Duration) FeeItemResponse {
	return FeeItemResponse{
		FeeItemID:              m.FeeItemID,
		FeeItemSchoolID:        m.FeeItemSchoolID,
		FeeItemSchoolStudentID: m.FeeItemSchoolStudentID,
		FeeItemCategoryID:      m.FeeItemCategoryID,
		FeeItemCategoryName:    m.FeeItemCategoryName,
		FeeItemLabel:           m.FeeItemLabel,
		FeeItemAmountINR:       m.FeeItemAmountINR,
		FeeItemDiscountINR:     m.FeeItemDiscountINR,
		FeeItemPaidAmountINR:   m.FeeItemPaidAmountINR,
		FeeItemBalanceINR:      m.BalanceINR(),
		FeeItemDueDate:         m.FeeItemDueDate,
		FeeItemStatus:          m.Status(now, horizon),
		FeeItemCreatedAt:       m.FeeItemCreatedAt,
		FeeItemUpdatedAt:       m.FeeItemUpdatedAt,
	}
}

func ToFeeItemResponses(list []ledgerModel.FeeItem, now time.Time, horizon time.Duration) []FeeItemResponse {
	out := make([]FeeItemResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToFeeItemResponse(v, now, horizon))
	}
	return out
}
