// file: internals/features/finance/reminders/dto/reminder_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolku_backend/internals/features/finance/reminders/model"
	svc "schoolku_backend/internals/features/finance/reminders/service"
)

////////////////////////////////////////////////////////////////////////////////
// REMINDERS — DTO
////////////////////////////////////////////////////////////////////////////////

type ReminderResponse struct {
	FeeItemID       uuid.UUID            `json:"fee_item_id"`
	SchoolStudentID uuid.UUID            `json:"school_student_id"`
	Label           string               `json:"label"`
	BalanceINR      int64                `json:"balance_inr"`
	DueDate         time.Time            `json:"due_date"`
	DaysUntilDue    int                  `json:"days_until_due"`
	Priority        svc.ReminderPriority `json:"priority"`
	Channels        []string             `json:"channels"`
}

type SnoozeRequest struct {
	FeeItemID uuid.UUID `json:"fee_item_id" validate:"required"`
	Until     time.Time `json:"until" validate:"required"`
}

type SnoozeResponse struct {
	ReminderSnoozeID        uuid.UUID `json:"reminder_snooze_id"`
	ReminderSnoozeFeeItemID uuid.UUID `json:"reminder_snooze_fee_item_id"`
	ReminderSnoozeUntil     time.Time `json:"reminder_snooze_until"`
}

type PreferencesRequest struct {
	Channels []string `json:"channels" validate:"required,min=1,dive,oneof=email sms push"`
}

type PreferencesResponse struct {
	SchoolStudentID uuid.UUID `json:"school_student_id"`
	Channels        []string  `json:"channels"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS
////////////////////////////////////////////////////////////////////////////////

func ToReminderResponses(list []svc.Reminder) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ReminderResponse{
			FeeItemID:       r.FeeItemID,
			SchoolStudentID: r.SchoolStudentID,
			Label:           r.Label,
			BalanceINR:      r.BalanceINR,
			DueDate:         r.DueDate,
			DaysUntilDue:    r.DaysUntilDue,
			Priority:        r.Priority,
			Channels:        r.Channels,
		})
	}
	return out
}

func ToSnoozeResponse(m model.ReminderSnooze) SnoozeResponse {
	return SnoozeResponse{
		ReminderSnoozeID:        m.ReminderSnoozeID,
		ReminderSnoozeFeeItemID: m.ReminderSnoozeFeeItemID,
		ReminderSnoozeUntil:     m.ReminderSnoozeUntil,
	}
}

func ToPreferencesResponse(m model.NotificationPreference) PreferencesResponse {
	return PreferencesResponse{
		SchoolStudentID: m.NotificationPreferenceSchoolStudentID,
		Channels:        m.NotificationPreferenceChannels,
	}
}
