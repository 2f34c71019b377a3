// file: internals/features/finance/reminders/service/reminder_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	model "schoolku_backend/internals/features/finance/reminders/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&ledgerModel.FeeItem{},
		&model.ReminderSnooze{},
		&model.NotificationPreference{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUnpaid(t *testing.T, db *gorm.DB, schoolID, studentID uuid.UUID, balance int64, due time.Time) ledgerModel.FeeItem {
	t.Helper()
	it := ledgerModel.FeeItem{
		FeeItemSchoolID:        schoolID,
		FeeItemSchoolStudentID: studentID,
		FeeItemCategoryID:      uuid.New(),
		FeeItemCategoryName:    "Tuition",
		FeeItemLabel:           "Tuition — Term 1",
		FeeItemAmountINR:       balance,
		FeeItemDueDate:         due,
	}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func TestPriorityFor(t *testing.T) {
	require.Equal(t, PriorityHigh, PriorityFor(-10))
	require.Equal(t, PriorityHigh, PriorityFor(0))
	require.Equal(t, PriorityHigh, PriorityFor(5))
	require.Equal(t, PriorityMedium, PriorityFor(6))
	require.Equal(t, PriorityMedium, PriorityFor(14))
	require.Equal(t, PriorityLow, PriorityFor(15))
}

func TestComputeReminders_PriorityAndOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	// due in -2, 3, 10, 20 days
	seedUnpaid(t, db, schoolID, studentID, 1000, now.AddDate(0, 0, -2))
	seedUnpaid(t, db, schoolID, studentID, 2000, now.AddDate(0, 0, 3))
	seedUnpaid(t, db, schoolID, studentID, 3000, now.AddDate(0, 0, 10))
	seedUnpaid(t, db, schoolID, studentID, 4000, now.AddDate(0, 0, 20))

	rs, err := ComputeReminders(ctx, db, schoolID, studentID, now)
	require.NoError(t, err)
	require.Len(t, rs, 4)

	wantDays := []int{-2, 3, 10, 20}
	wantPrio := []ReminderPriority{PriorityHigh, PriorityHigh, PriorityMedium, PriorityLow}
	for i := range rs {
		require.Equal(t, wantDays[i], rs[i].DaysUntilDue)
		require.Equal(t, wantPrio[i], rs[i].Priority)
	}
}

func TestComputeReminders_BalanceBreaksTies(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 3)

	small := seedUnpaid(t, db, schoolID, studentID, 500, due)
	big := seedUnpaid(t, db, schoolID, studentID, 5000, due)

	rs, err := ComputeReminders(ctx, db, schoolID, studentID, now)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	require.Equal(t, big.FeeItemID, rs[0].FeeItemID)
	require.Equal(t, small.FeeItemID, rs[1].FeeItemID)
}

func TestComputeReminders_ExcludesPaidAndSnoozed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	now := time.Now()

	kept := seedUnpaid(t, db, schoolID, studentID, 1000, now.AddDate(0, 0, 2))
	muted := seedUnpaid(t, db, schoolID, studentID, 1000, now.AddDate(0, 0, 2))
	paid := seedUnpaid(t, db, schoolID, studentID, 1000, now.AddDate(0, 0, 2))
	require.NoError(t, db.Model(&ledgerModel.FeeItem{}).
		Where("fee_item_id = ?", paid.FeeItemID).
		Update("fee_item_paid_amount_inr", 1000).Error)

	_, err := Snooze(ctx, db, schoolID, muted.FeeItemID, now.Add(48*time.Hour), nil)
	require.NoError(t, err)

	rs, err := ComputeReminders(ctx, db, schoolID, studentID, now)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Equal(t, kept.FeeItemID, rs[0].FeeItemID)

	// the snoozed item itself is untouched
	var got ledgerModel.FeeItem
	require.NoError(t, db.Take(&got, "fee_item_id = ?", muted.FeeItemID).Error)
	require.EqualValues(t, 0, got.FeeItemPaidAmountINR)
	require.Equal(t, muted.FeeItemDueDate.UTC(), got.FeeItemDueDate.UTC())

	// once the snooze lapses the reminder returns
	rs, err = ComputeReminders(ctx, db, schoolID, studentID, now.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, rs, 2)
}

func TestSnooze_ReplacesAndValidates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID := uuid.New()
	item := seedUnpaid(t, db, schoolID, uuid.New(), 1000, time.Now().AddDate(0, 0, 2))

	_, err := Snooze(ctx, db, schoolID, item.FeeItemID, time.Now().Add(-time.Hour), nil)
	require.ErrorIs(t, err, ErrSnoozeInPast)

	first := time.Now().Add(24 * time.Hour)
	_, err = Snooze(ctx, db, schoolID, item.FeeItemID, first, nil)
	require.NoError(t, err)

	later := time.Now().Add(96 * time.Hour)
	_, err = Snooze(ctx, db, schoolID, item.FeeItemID, later, nil)
	require.NoError(t, err)

	var all []model.ReminderSnooze
	require.NoError(t, db.Find(&all).Error)
	require.Len(t, all, 1, "snoozing again replaces, never stacks")
	require.WithinDuration(t, later, all[0].ReminderSnoozeUntil, time.Second)
}

func TestChannels(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	now := time.Now()
	seedUnpaid(t, db, schoolID, studentID, 1000, now.AddDate(0, 0, 2))

	// no preference: email only
	rs, err := ComputeReminders(ctx, db, schoolID, studentID, now)
	require.NoError(t, err)
	require.Equal(t, []string{model.ChannelEmail}, rs[0].Channels)

	_, err = SetPreferences(ctx, db, schoolID, studentID, []string{model.ChannelSMS, model.ChannelPush})
	require.NoError(t, err)

	rs, err = ComputeReminders(ctx, db, schoolID, studentID, now)
	require.NoError(t, err)
	require.Equal(t, []string{model.ChannelSMS, model.ChannelPush}, rs[0].Channels)

	// preferences upsert in place
	_, err = SetPreferences(ctx, db, schoolID, studentID, []string{model.ChannelEmail})
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&model.NotificationPreference{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestGetPreferences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()

	// never set: synthesized email default, nothing persisted
	p, err := GetPreferences(ctx, db, schoolID, studentID)
	require.NoError(t, err)
	require.Equal(t, []string{model.ChannelEmail}, []string(p.NotificationPreferenceChannels))
	var n int64
	require.NoError(t, db.Model(&model.NotificationPreference{}).Count(&n).Error)
	require.EqualValues(t, 0, n)

	_, err = SetPreferences(ctx, db, schoolID, studentID, []string{model.ChannelPush})
	require.NoError(t, err)

	p, err = GetPreferences(ctx, db, schoolID, studentID)
	require.NoError(t, err)
	require.Equal(t, []string{model.ChannelPush}, []string(p.NotificationPreferenceChannels))
}
