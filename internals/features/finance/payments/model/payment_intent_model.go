// file: internals/features/finance/payments/model/payment_intent_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (must match DB)
================================ */

type PaymentIntentStatus string

const (
	PaymentIntentStatusPending   PaymentIntentStatus = "pending"
	PaymentIntentStatusCompleted PaymentIntentStatus = "completed"
	PaymentIntentStatusFailed    PaymentIntentStatus = "failed"
	PaymentIntentStatusExpired   PaymentIntentStatus = "expired"
)

/* ================================
   MODEL: payment_intents
================================ */

// PaymentIntent is the server-side order opened before the payer is handed to
// the gateway. The allocation plan chosen at checkout is frozen on the row as
// jsonb so a webhook-driven capture can replay it without the client.
type PaymentIntent struct {
	PaymentIntentID uuid.UUID `json:"payment_intent_id" gorm:"column:payment_intent_id;type:uuid;primaryKey"`

	PaymentIntentSchoolID        uuid.UUID `json:"payment_intent_school_id"         gorm:"column:payment_intent_school_id;type:uuid;not null;index"`
	PaymentIntentSchoolStudentID uuid.UUID `json:"payment_intent_school_student_id" gorm:"column:payment_intent_school_student_id;type:uuid;not null;index"`
	PaymentIntentPayerUserID     *uuid.UUID `json:"payment_intent_payer_user_id" gorm:"column:payment_intent_payer_user_id;type:uuid"`

	PaymentIntentAmountINR int64               `json:"payment_intent_amount_inr" gorm:"column:payment_intent_amount_inr;type:bigint;not null;check:payment_intent_amount_inr>0"`
	PaymentIntentStatus    PaymentIntentStatus `json:"payment_intent_status"     gorm:"column:payment_intent_status;type:payment_intent_status;not null;default:'pending';index"`

	// Gateway linkage
	PaymentIntentProvider       string `json:"payment_intent_provider"         gorm:"column:payment_intent_provider;type:varchar(20);not null"`
	PaymentIntentGatewayOrderID string `json:"payment_intent_gateway_order_id" gorm:"column:payment_intent_gateway_order_id;type:varchar(80);not null;uniqueIndex:uq_payment_intents_order"`

	// Frozen allocation plan: [{"fee_item_id": "...", "amount_inr": 1234}, ...]
	PaymentIntentPlan datatypes.JSON `json:"payment_intent_plan" gorm:"column:payment_intent_plan;type:jsonb;not null"`

	PaymentIntentExpiresAt time.Time  `json:"payment_intent_expires_at" gorm:"column:payment_intent_expires_at;not null;index"`
	PaymentIntentFailedReason *string `json:"payment_intent_failed_reason" gorm:"column:payment_intent_failed_reason;type:text"`

	PaymentIntentCreatedAt time.Time      `json:"payment_intent_created_at" gorm:"column:payment_intent_created_at;not null;default:CURRENT_TIMESTAMP"`
	PaymentIntentUpdatedAt time.Time      `json:"payment_intent_updated_at" gorm:"column:payment_intent_updated_at;not null;default:CURRENT_TIMESTAMP"`
	PaymentIntentDeletedAt gorm.DeletedAt `json:"-"                         gorm:"column:payment_intent_deleted_at;index"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }

func (m *PaymentIntent) IsTerminal() bool {
	return m.PaymentIntentStatus != PaymentIntentStatusPending
}

func (m *PaymentIntent) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentIntentID == uuid.Nil {
		m.PaymentIntentID = uuid.New()
	}
	now := time.Now()
	if m.PaymentIntentCreatedAt.IsZero() {
		m.PaymentIntentCreatedAt = now
	}
	m.PaymentIntentUpdatedAt = now
	return nil
}

func (m *PaymentIntent) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentIntentUpdatedAt = time.Now()
	return nil
}
