// file: internals/features/finance/ledger/service/ledger_service_test.go
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
)

const testHorizon = 30 * 24 * time.Hour

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&ledgerModel.FeeItem{}))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedItem(t *testing.T, db *gorm.DB, schoolID, studentID uuid.UUID, amount, paid int64, due time.Time) ledgerModel.FeeItem {
	t.Helper()
	it := ledgerModel.FeeItem{
		FeeItemSchoolID:        schoolID,
		FeeItemSchoolStudentID: studentID,
		FeeItemCategoryID:      uuid.New(),
		FeeItemCategoryName:    "Tuition",
		FeeItemLabel:           "Tuition — Term 1",
		FeeItemAmountINR:       amount,
		FeeItemPaidAmountINR:   paid,
		FeeItemDueDate:         due,
	}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func TestFeeItemStatusDerivation(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		amount int64
		paid   int64
		due    time.Time
		want   ledgerModel.FeeItemStatus
	}{
		{"fully paid", 1000, 1000, now.AddDate(0, 0, -10), ledgerModel.FeeItemStatusPaid},
		{"partially paid", 1000, 400, now.AddDate(0, 0, -10), ledgerModel.FeeItemStatusPartial},
		{"unpaid past due", 1000, 0, now.AddDate(0, 0, -1), ledgerModel.FeeItemStatusOverdue},
		{"unpaid inside horizon", 1000, 0, now.AddDate(0, 0, 7), ledgerModel.FeeItemStatusPending},
		{"unpaid beyond horizon", 1000, 0, now.AddDate(0, 0, 45), ledgerModel.FeeItemStatusUpcoming},
		{"overpaid clamps to paid", 1000, 1200, now.AddDate(0, 0, 7), ledgerModel.FeeItemStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := ledgerModel.FeeItem{
				FeeItemAmountINR:     tc.amount,
				FeeItemPaidAmountINR: tc.paid,
				FeeItemDueDate:       tc.due,
			}
			require.Equal(t, tc.want, it.Status(now, testHorizon))
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	items := []ledgerModel.FeeItem{
		{FeeItemAmountINR: 3000, FeeItemPaidAmountINR: 3000, FeeItemDueDate: now.AddDate(0, 0, -30)}, // PAID
		{FeeItemAmountINR: 3000, FeeItemPaidAmountINR: 2500, FeeItemDueDate: now.AddDate(0, 0, -5)},  // PARTIAL
		{FeeItemAmountINR: 2000, FeeItemPaidAmountINR: 0, FeeItemDueDate: now.AddDate(0, 0, 10)},     // DUE
	}

	s := Summarize(items, now, testHorizon)
	require.EqualValues(t, 8000, s.TotalAmountINR)
	require.EqualValues(t, 5500, s.TotalPaidINR)
	require.EqualValues(t, 2500, s.TotalBalanceINR)
	require.Equal(t, 1, s.CountByStatus[ledgerModel.FeeItemStatusPaid])
	require.Equal(t, 1, s.CountByStatus[ledgerModel.FeeItemStatusPartial])
	require.Equal(t, 1, s.CountByStatus[ledgerModel.FeeItemStatusPending])

	// next due points at the earliest unsettled item, not the paid one
	require.NotNil(t, s.NextDueDate)
	require.True(t, s.NextDueDate.Equal(now.AddDate(0, 0, -5)))
	require.EqualValues(t, 500, s.NextDueAmountINR)
}

func TestSummarize_NextDue(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 10)

	idA := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	idB := uuid.MustParse("00000000-0000-0000-0000-0000000000bb")

	// equal due dates settle on the lowest id
	s := Summarize([]ledgerModel.FeeItem{
		{FeeItemID: idB, FeeItemAmountINR: 2000, FeeItemPaidAmountINR: 0, FeeItemDueDate: due},
		{FeeItemID: idA, FeeItemAmountINR: 1000, FeeItemPaidAmountINR: 300, FeeItemDueDate: due},
	}, now, testHorizon)
	require.NotNil(t, s.NextDueDate)
	require.True(t, s.NextDueDate.Equal(due))
	require.EqualValues(t, 700, s.NextDueAmountINR)

	// fully settled ledger has no next due
	s = Summarize([]ledgerModel.FeeItem{
		{FeeItemID: idA, FeeItemAmountINR: 1000, FeeItemPaidAmountINR: 1000, FeeItemDueDate: due},
	}, now, testHorizon)
	require.Nil(t, s.NextDueDate)
	require.EqualValues(t, 0, s.NextDueAmountINR)
}

func TestListFeeItems_DueDateOrderWithIDTieBreak(t *testing.T) {
	db := openTestDB(t)
	schoolID, studentID := uuid.New(), uuid.New()
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	a := seedItem(t, db, schoolID, studentID, 1000, 0, due)
	b := seedItem(t, db, schoolID, studentID, 2000, 0, due)
	early := seedItem(t, db, schoolID, studentID, 500, 0, due.AddDate(0, -1, 0))

	items, err := ListFeeItems(context.Background(), db, schoolID, studentID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, early.FeeItemID, items[0].FeeItemID)

	// equal due dates keep a stable id order
	lo, hi := a.FeeItemID.String(), b.FeeItemID.String()
	if lo > hi {
		lo, hi = hi, lo
	}
	require.Equal(t, lo, items[1].FeeItemID.String())
	require.Equal(t, hi, items[2].FeeItemID.String())
}

func TestApplyAllocation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedItem(t, db, schoolID, studentID, 3000, 0, time.Now().AddDate(0, 0, 10))

	require.NoError(t, ApplyAllocation(ctx, db, schoolID, it.FeeItemID, 1000))
	require.NoError(t, ApplyAllocation(ctx, db, schoolID, it.FeeItemID, 2000))

	var got ledgerModel.FeeItem
	require.NoError(t, db.Take(&got, "fee_item_id = ?", it.FeeItemID).Error)
	require.EqualValues(t, 3000, got.FeeItemPaidAmountINR)

	// fully paid, any further allocation is rejected and the row untouched
	err := ApplyAllocation(ctx, db, schoolID, it.FeeItemID, 1)
	require.ErrorIs(t, err, ErrOverAllocation)
	require.NoError(t, db.Take(&got, "fee_item_id = ?", it.FeeItemID).Error)
	require.EqualValues(t, 3000, got.FeeItemPaidAmountINR)
}

func TestApplyAllocation_Errors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedItem(t, db, schoolID, studentID, 1000, 0, time.Now())

	// larger than balance
	require.ErrorIs(t, ApplyAllocation(ctx, db, schoolID, it.FeeItemID, 1001), ErrOverAllocation)
	// zero and negative amounts never touch the row
	require.ErrorIs(t, ApplyAllocation(ctx, db, schoolID, it.FeeItemID, 0), ErrOverAllocation)
	require.ErrorIs(t, ApplyAllocation(ctx, db, schoolID, it.FeeItemID, -5), ErrOverAllocation)
	// unknown item
	require.ErrorIs(t, ApplyAllocation(ctx, db, schoolID, uuid.New(), 100), ErrFeeItemNotFound)
	// wrong tenant cannot see the row
	require.ErrorIs(t, ApplyAllocation(ctx, db, uuid.New(), it.FeeItemID, 100), ErrFeeItemNotFound)
}

func TestReverseAllocation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedItem(t, db, schoolID, studentID, 3000, 2000, time.Now())

	require.NoError(t, ReverseAllocation(ctx, db, schoolID, it.FeeItemID, 1500))

	var got ledgerModel.FeeItem
	require.NoError(t, db.Take(&got, "fee_item_id = ?", it.FeeItemID).Error)
	require.EqualValues(t, 500, got.FeeItemPaidAmountINR)

	// paid may never go negative
	require.ErrorIs(t, ReverseAllocation(ctx, db, schoolID, it.FeeItemID, 501), ErrOverAllocation)
	require.NoError(t, db.Take(&got, "fee_item_id = ?", it.FeeItemID).Error)
	require.EqualValues(t, 500, got.FeeItemPaidAmountINR)

	// unknown item and wrong tenant
	require.ErrorIs(t, ReverseAllocation(ctx, db, schoolID, uuid.New(), 100), ErrFeeItemNotFound)
	require.ErrorIs(t, ReverseAllocation(ctx, db, uuid.New(), it.FeeItemID, 100), ErrFeeItemNotFound)
}
