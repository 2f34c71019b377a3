// file: internals/features/finance/payments/model/payment_gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ================================
   MODEL: payment_gateway_events
================================ */

// PaymentGatewayEvent is the append-only audit trail of raw gateway callbacks.
// The unique (provider, payment, type) index deduplicates webhook retries;
// a conflicting insert is simply skipped.
type PaymentGatewayEvent struct {
	PaymentGatewayEventID uuid.UUID `json:"payment_gateway_event_id" gorm:"column:payment_gateway_event_id;type:uuid;primaryKey"`

	PaymentGatewayEventSchoolID *uuid.UUID `json:"payment_gateway_event_school_id" gorm:"column:payment_gateway_event_school_id;type:uuid;index"`

	PaymentGatewayEventProvider  string `json:"payment_gateway_event_provider"   gorm:"column:payment_gateway_event_provider;type:varchar(20);not null;uniqueIndex:uq_gateway_events_dedup,priority:1"`
	PaymentGatewayEventPaymentID string `json:"payment_gateway_event_payment_id" gorm:"column:payment_gateway_event_payment_id;type:varchar(80);not null;uniqueIndex:uq_gateway_events_dedup,priority:2"`
	PaymentGatewayEventType      string `json:"payment_gateway_event_type"       gorm:"column:payment_gateway_event_type;type:varchar(40);not null;uniqueIndex:uq_gateway_events_dedup,priority:3"`

	PaymentGatewayEventOrderID     string         `json:"payment_gateway_event_order_id"     gorm:"column:payment_gateway_event_order_id;type:varchar(80);not null;index"`
	PaymentGatewayEventSignatureOK bool           `json:"payment_gateway_event_signature_ok" gorm:"column:payment_gateway_event_signature_ok;type:boolean;not null"`
	PaymentGatewayEventPayload     datatypes.JSON `json:"payment_gateway_event_payload"      gorm:"column:payment_gateway_event_payload;type:jsonb"`

	PaymentGatewayEventReceivedAt time.Time `json:"payment_gateway_event_received_at" gorm:"column:payment_gateway_event_received_at;not null;default:CURRENT_TIMESTAMP"`
}

func (PaymentGatewayEvent) TableName() string { return "payment_gateway_events" }

func (m *PaymentGatewayEvent) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentGatewayEventID == uuid.Nil {
		m.PaymentGatewayEventID = uuid.New()
	}
	if m.PaymentGatewayEventReceivedAt.IsZero() {
		m.PaymentGatewayEventReceivedAt = time.Now()
	}
	return nil
}
