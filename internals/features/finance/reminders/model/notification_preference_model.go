// file: internals/features/finance/reminders/model/notification_preference_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Channels a reminder can go out on.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

/* ================================
   MODEL: notification_preferences
================================ */

// NotificationPreference stores the channels a student's guardians opted
// into. Absent row means the school default (email only).
type NotificationPreference struct {
	NotificationPreferenceID uuid.UUID `json:"notification_preference_id" gorm:"column:notification_preference_id;type:uuid;primaryKey"`

	NotificationPreferenceSchoolID        uuid.UUID `json:"notification_preference_school_id"         gorm:"column:notification_preference_school_id;type:uuid;not null;index"`
	NotificationPreferenceSchoolStudentID uuid.UUID `json:"notification_preference_school_student_id" gorm:"column:notification_preference_school_student_id;type:uuid;not null;uniqueIndex:uq_notification_prefs_student"`

	NotificationPreferenceChannels pq.StringArray `json:"notification_preference_channels" gorm:"column:notification_preference_channels;type:text[];not null"`

	NotificationPreferenceCreatedAt time.Time `json:"notification_preference_created_at" gorm:"column:notification_preference_created_at;not null;default:CURRENT_TIMESTAMP"`
	NotificationPreferenceUpdatedAt time.Time `json:"notification_preference_updated_at" gorm:"column:notification_preference_updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

func (m *NotificationPreference) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationPreferenceID == uuid.Nil {
		m.NotificationPreferenceID = uuid.New()
	}
	now := time.Now()
	if m.NotificationPreferenceCreatedAt.IsZero() {
		m.NotificationPreferenceCreatedAt = now
	}
	m.NotificationPreferenceUpdatedAt = now
	return nil
}

func (m *NotificationPreference) BeforeUpdate(tx *gorm.DB) error {
	m.NotificationPreferenceUpdatedAt = time.Now()
	return nil
}
