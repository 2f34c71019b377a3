// file: internals/features/finance/reminders/model/reminder_snooze_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: reminder_snoozes
================================ */

// ReminderSnooze mutes reminders for one fee item until a chosen instant.
// It is pure notification state: the fee item itself, its due date, and its
// status are never touched by snoozing.
type ReminderSnooze struct {
	ReminderSnoozeID uuid.UUID `json:"reminder_snooze_id" gorm:"column:reminder_snooze_id;type:uuid;primaryKey"`

	ReminderSnoozeSchoolID  uuid.UUID `json:"reminder_snooze_school_id"   gorm:"column:reminder_snooze_school_id;type:uuid;not null;index"`
	ReminderSnoozeFeeItemID uuid.UUID `json:"reminder_snooze_fee_item_id" gorm:"column:reminder_snooze_fee_item_id;type:uuid;not null;uniqueIndex:uq_reminder_snoozes_item"`

	ReminderSnoozeUntil        time.Time  `json:"reminder_snooze_until"          gorm:"column:reminder_snooze_until;not null"`
	ReminderSnoozeByUserID     *uuid.UUID `json:"reminder_snooze_by_user_id"     gorm:"column:reminder_snooze_by_user_id;type:uuid"`

	ReminderSnoozeCreatedAt time.Time `json:"reminder_snooze_created_at" gorm:"column:reminder_snooze_created_at;not null;default:CURRENT_TIMESTAMP"`
	ReminderSnoozeUpdatedAt time.Time `json:"reminder_snooze_updated_at" gorm:"column:reminder_snooze_updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (ReminderSnooze) TableName() string { return "reminder_snoozes" }

func (m *ReminderSnooze) BeforeCreate(tx *gorm.DB) error {
	if m.ReminderSnoozeID == uuid.Nil {
		m.ReminderSnoozeID = uuid.New()
	}
	now := time.Now()
	if m.ReminderSnoozeCreatedAt.IsZero() {
		m.ReminderSnoozeCreatedAt = now
	}
	m.ReminderSnoozeUpdatedAt = now
	return nil
}

func (m *ReminderSnooze) BeforeUpdate(tx *gorm.DB) error {
	m.ReminderSnoozeUpdatedAt = time.Now()
	return nil
}
