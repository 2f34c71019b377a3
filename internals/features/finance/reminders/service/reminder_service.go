// file: internals/features/finance/reminders/service/reminder_service.go
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	model "schoolku_backend/internals/features/finance/reminders/model"
)

var ErrSnoozeInPast = errors.New("snooze must end in the future")

/* =========================================================
   Priorities
========================================================= */

type ReminderPriority string

const (
	PriorityHigh   ReminderPriority = "HIGH"
	PriorityMedium ReminderPriority = "MEDIUM"
	PriorityLow    ReminderPriority = "LOW"
)

const (
	highWithinDays   = 5
	mediumWithinDays = 14
)

// PriorityFor grades urgency from whole days until due (negative = overdue).
func PriorityFor(daysUntilDue int) ReminderPriority {
	switch {
	case daysUntilDue <= highWithinDays:
		return PriorityHigh
	case daysUntilDue <= mediumWithinDays:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

/* =========================================================
   Compute
========================================================= */

type Reminder struct {
	FeeItemID       uuid.UUID
	SchoolStudentID uuid.UUID
	Label           string
	BalanceINR      int64
	DueDate         time.Time
	DaysUntilDue    int
	Priority        ReminderPriority
	Channels        []string
}

// ComputeReminders builds the reminder list for one student: every unpaid
// fee item, graded by urgency, minus anything under an active snooze.
// Ordering is most-urgent first (days ascending), larger balance first
// within a day. Nothing here writes; reminders are a pure read model.
func ComputeReminders(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID, now time.Time) ([]Reminder, error) {
	var items []ledgerModel.FeeItem
	err := db.WithContext(ctx).
		Where("fee_item_school_id = ? AND fee_item_school_student_id = ?", schoolID, studentID).
		Where("fee_item_paid_amount_inr < fee_item_amount_inr").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Reminder{}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.FeeItemID)
	}
	var snoozes []model.ReminderSnooze
	if err := db.WithContext(ctx).
		Where("reminder_snooze_fee_item_id IN ? AND reminder_snooze_until > ?", ids, now).
		Find(&snoozes).Error; err != nil {
		return nil, err
	}
	muted := make(map[uuid.UUID]struct{}, len(snoozes))
	for _, s := range snoozes {
		muted[s.ReminderSnoozeFeeItemID] = struct{}{}
	}

	channels := channelsFor(ctx, db, schoolID, studentID)

	out := make([]Reminder, 0, len(items))
	for _, it := range items {
		if _, ok := muted[it.FeeItemID]; ok {
			continue
		}
		days := daysBetween(now, it.FeeItemDueDate)
		out = append(out, Reminder{
			FeeItemID:       it.FeeItemID,
			SchoolStudentID: it.FeeItemSchoolStudentID,
			Label:           it.FeeItemLabel,
			BalanceINR:      it.BalanceINR(),
			DueDate:         it.FeeItemDueDate,
			DaysUntilDue:    days,
			Priority:        PriorityFor(days),
			Channels:        channels,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntilDue != out[j].DaysUntilDue {
			return out[i].DaysUntilDue < out[j].DaysUntilDue
		}
		return out[i].BalanceINR > out[j].BalanceINR
	})
	return out, nil
}

// channelsFor reads the opted-in channels, defaulting to email when the
// student never expressed a preference.
func channelsFor(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID) []string {
	var pref model.NotificationPreference
	err := db.WithContext(ctx).
		Where("notification_preference_school_id = ? AND notification_preference_school_student_id = ?", schoolID, studentID).
		Take(&pref).Error
	if err != nil || len(pref.NotificationPreferenceChannels) == 0 {
		return []string{model.ChannelEmail}
	}
	return pref.NotificationPreferenceChannels
}

// daysBetween counts whole calendar days from now to due (negative when due
// is behind now).
func daysBetween(now, due time.Time) int {
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}

/* =========================================================
   Snooze
========================================================= */

// Snooze mutes one fee item's reminders until the given instant, replacing
// any earlier snooze. It writes only notification state.
func Snooze(ctx context.Context, db *gorm.DB, schoolID, feeItemID uuid.UUID, until time.Time, byUser *uuid.UUID) (*model.ReminderSnooze, error) {
	if !until.After(time.Now()) {
		return nil, ErrSnoozeInPast
	}

	s := model.ReminderSnooze{
		ReminderSnoozeSchoolID:  schoolID,
		ReminderSnoozeFeeItemID: feeItemID,
		ReminderSnoozeUntil:     until,
		ReminderSnoozeByUserID:  byUser,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "reminder_snooze_fee_item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"reminder_snooze_until":      until,
				"reminder_snooze_by_user_id": byUser,
				"reminder_snooze_updated_at": time.Now(),
			}),
		}).
		Create(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

/* =========================================================
   Preferences
========================================================= */

// GetPreferences reads the stored channel opt-ins, synthesizing the email
// default when the student never expressed a preference.
func GetPreferences(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID) (*model.NotificationPreference, error) {
	var pref model.NotificationPreference
	err := db.WithContext(ctx).
		Where("notification_preference_school_id = ? AND notification_preference_school_student_id = ?", schoolID, studentID).
		Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.NotificationPreference{
			NotificationPreferenceSchoolID:        schoolID,
			NotificationPreferenceSchoolStudentID: studentID,
			NotificationPreferenceChannels:        []string{model.ChannelEmail},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// SetPreferences upserts the channel opt-ins for a student.
func SetPreferences(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID, channels []string) (*model.NotificationPreference, error) {
	p := model.NotificationPreference{
		NotificationPreferenceSchoolID:        schoolID,
		NotificationPreferenceSchoolStudentID: studentID,
		NotificationPreferenceChannels:        channels,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "notification_preference_school_student_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"notification_preference_channels":   p.NotificationPreferenceChannels,
				"notification_preference_updated_at": time.Now(),
			}),
		}).
		Create(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
