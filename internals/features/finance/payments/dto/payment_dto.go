// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolku_backend/internals/features/finance/payments/model"
	svc "schoolku_backend/internals/features/finance/payments/service"
)

////////////////////////////////////////////////////////////////////////////////
// INTENT — DTO
////////////////////////////////////////////////////////////////////////////////

type AllocationEntryDTO struct {
	FeeItemID uuid.UUID `json:"fee_item_id" validate:"required"`
	AmountINR int64     `json:"amount_inr" validate:"required,min=1"`
}

type CreateIntentRequest struct {
	SchoolStudentID uuid.UUID            `json:"school_student_id" validate:"required"`
	Plan            []AllocationEntryDTO `json:"plan" validate:"required,min=1,dive"`
}

type PaymentIntentResponse struct {
	PaymentIntentID              uuid.UUID                 `json:"payment_intent_id"`
	PaymentIntentSchoolStudentID uuid.UUID                 `json:"payment_intent_school_student_id"`
	PaymentIntentAmountINR       int64                     `json:"payment_intent_amount_inr"`
	PaymentIntentStatus          model.PaymentIntentStatus `json:"payment_intent_status"`
	PaymentIntentProvider        string                    `json:"payment_intent_provider"`
	PaymentIntentGatewayOrderID  string                    `json:"payment_intent_gateway_order_id"`
	PaymentIntentExpiresAt       time.Time                 `json:"payment_intent_expires_at"`
	PaymentIntentFailedReason    *string                   `json:"payment_intent_failed_reason,omitempty"`
	PaymentIntentCreatedAt       time.Time                 `json:"payment_intent_created_at"`
}

////////////////////////////////////////////////////////////////////////////////
// VERIFY / FAILURE — DTO
////////////////////////////////////////////////////////////////////////////////

type VerifyPaymentRequest struct {
	OrderID          string  `json:"order_id" validate:"required,max=80"`
	GatewayPaymentID string  `json:"gateway_payment_id" validate:"required,max=80"`
	Signature        string  `json:"signature" validate:"required"`
	Method           *string `json:"method,omitempty" validate:"omitempty,max=30"`

	// Optional override of the plan frozen on the intent. Totals must still
	// match the intent amount.
	Plan []AllocationEntryDTO `json:"plan,omitempty" validate:"omitempty,min=1,dive"`
}

type FailPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,max=80"`
	Reason  string `json:"reason" validate:"required,max=200"`
}

////////////////////////////////////////////////////////////////////////////////
// PAYMENT — DTO
////////////////////////////////////////////////////////////////////////////////

type PaymentAllocationResponse struct {
	PaymentAllocationFeeItemID uuid.UUID `json:"payment_allocation_fee_item_id"`
	PaymentAllocationAmountINR int64     `json:"payment_allocation_amount_inr"`
	PaymentAllocationLabel     string    `json:"payment_allocation_label"`
}

type PaymentResponse struct {
	PaymentID               uuid.UUID           `json:"payment_id"`
	PaymentSchoolStudentID  uuid.UUID           `json:"payment_school_student_id"`
	PaymentIntentID         uuid.UUID           `json:"payment_intent_id"`
	PaymentProvider         string              `json:"payment_provider"`
	PaymentGatewayOrderID   string              `json:"payment_gateway_order_id"`
	PaymentGatewayPaymentID string              `json:"payment_gateway_payment_id"`
	PaymentAmountINR        int64               `json:"payment_amount_inr"`
	PaymentStatus           model.PaymentStatus `json:"payment_status"`
	PaymentMethod           *string             `json:"payment_method,omitempty"`
	PaymentPaidAt           *time.Time          `json:"payment_paid_at,omitempty"`
	PaymentRefundedAt       *time.Time          `json:"payment_refunded_at,omitempty"`

	PaymentAllocations []PaymentAllocationResponse `json:"payment_allocations,omitempty"`

	AlreadyProcessed bool `json:"already_processed,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS
////////////////////////////////////////////////////////////////////////////////

func ToServicePlan(plan []AllocationEntryDTO) []svc.AllocationEntry {
	if plan == nil {
		return nil
	}
	out := make([]svc.AllocationEntry, 0, len(plan))
	for _, e := range plan {
		out = append(out, svc.AllocationEntry{FeeItemID: e.FeeItemID, AmountINR: e.AmountINR})
	}
	return out
}

func ToPaymentIntentResponse(m model.PaymentIntent) PaymentIntentResponse {
	return PaymentIntentResponse{
		PaymentIntentID:              m.PaymentIntentID,
		PaymentIntentSchoolStudentID: m.PaymentIntentSchoolStudentID,
		PaymentIntentAmountINR:       m.PaymentIntentAmountINR,
		PaymentIntentStatus:          m.PaymentIntentStatus,
		PaymentIntentProvider:        m.PaymentIntentProvider,
		PaymentIntentGatewayOrderID:  m.PaymentIntentGatewayOrderID,
		PaymentIntentExpiresAt:       m.PaymentIntentExpiresAt,
		PaymentIntentFailedReason:    m.PaymentIntentFailedReason,
		PaymentIntentCreatedAt:       m.PaymentIntentCreatedAt,
	}
}

func ToPaymentResponse(m model.Payment, allocs []model.PaymentAllocation, already bool) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:               m.PaymentID,
		PaymentSchoolStudentID:  m.PaymentSchoolStudentID,
		PaymentIntentID:         m.PaymentIntentID,
		PaymentProvider:         m.PaymentProvider,
		PaymentGatewayOrderID:   m.PaymentGatewayOrderID,
		PaymentGatewayPaymentID: m.PaymentGatewayPaymentID,
		PaymentAmountINR:        m.PaymentAmountINR,
		PaymentStatus:           m.PaymentStatus,
		PaymentMethod:           m.PaymentMethod,
		PaymentPaidAt:           m.PaymentPaidAt,
		PaymentRefundedAt:       m.PaymentRefundedAt,
		AlreadyProcessed:        already,
	}
	for _, a := range allocs {
		resp.PaymentAllocations = append(resp.PaymentAllocations, PaymentAllocationResponse{
			PaymentAllocationFeeItemID: a.PaymentAllocationFeeItemID,
			PaymentAllocationAmountINR: a.PaymentAllocationAmountINR,
			PaymentAllocationLabel:     a.PaymentAllocationLabel,
		})
	}
	return resp
}

func ToPaymentResponses(list []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToPaymentResponse(v, nil, false))
	}
	return out
}
