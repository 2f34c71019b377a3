// file: internals/features/finance/payments/service/reconcile_service_test.go
package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	ledgerSvc "schoolku_backend/internals/features/finance/ledger/service"
	model "schoolku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Fixtures
========================================================= */

// fakeGateway stands in for a real provider: orders are sequential ids and a
// signature is valid iff it equals "sig:" + order + "|" + payment. Setting
// down makes CreateOrder fail the way the real clients do on transport errors.
type fakeGateway struct {
	mu     sync.Mutex
	orders int
	down   bool
}

func (g *fakeGateway) Provider() string { return "fake" }

func (g *fakeGateway) CreateOrder(ctx context.Context, amountINR int64, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return "", fmt.Errorf("%w: fake order create: connection refused", ErrGatewayUnavailable)
	}
	g.orders++
	return fmt.Sprintf("order_%03d", g.orders), nil
}

func (g *fakeGateway) VerifySignature(in SignatureInput) error {
	if in.Signature != "sig:"+in.OrderID+"|"+in.PaymentID {
		return ErrBadSignature
	}
	return nil
}

func signFor(orderID, paymentID string) string { return "sig:" + orderID + "|" + paymentID }

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
		&model.PaymentIntent{},
		&model.Payment{},
		&model.PaymentAllocation{},
		&model.PaymentGatewayEvent{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedFeeItem(t *testing.T, db *gorm.DB, schoolID, studentID uuid.UUID, amount int64) ledgerModel.FeeItem {
	t.Helper()
	it := ledgerModel.FeeItem{
		FeeItemSchoolID:        schoolID,
		FeeItemSchoolStudentID: studentID,
		FeeItemCategoryID:      uuid.New(),
		FeeItemCategoryName:    "Tuition",
		FeeItemLabel:           "Tuition — Term 1",
		FeeItemAmountINR:       amount,
		FeeItemDueDate:         time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func paidOf(t *testing.T, db *gorm.DB, id uuid.UUID) int64 {
	t.Helper()
	var it ledgerModel.FeeItem
	require.NoError(t, db.Take(&it, "fee_item_id = ?", id).Error)
	return it.FeeItemPaidAmountINR
}

/* =========================================================
   CreateIntent
========================================================= */

func TestCreateIntent(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()

	a := seedFeeItem(t, db, schoolID, studentID, 3000)
	b := seedFeeItem(t, db, schoolID, studentID, 2000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan: []AllocationEntry{
			{FeeItemID: a.FeeItemID, AmountINR: 3000},
			{FeeItemID: b.FeeItemID, AmountINR: 500},
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 3500, intent.PaymentIntentAmountINR)
	require.Equal(t, model.PaymentIntentStatusPending, intent.PaymentIntentStatus)
	require.Equal(t, "order_001", intent.PaymentIntentGatewayOrderID)
	require.True(t, intent.PaymentIntentExpiresAt.After(time.Now()))
	require.NotEmpty(t, intent.PaymentIntentPlan)

	// creating an intent reserves nothing on the ledger
	require.EqualValues(t, 0, paidOf(t, db, a.FeeItemID))
}

func TestCreateIntent_RejectsBadPlans(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	cases := []struct {
		name string
		plan []AllocationEntry
		want error
	}{
		{"empty plan", nil, ErrEmptyPlan},
		{"duplicate item", []AllocationEntry{
			{FeeItemID: it.FeeItemID, AmountINR: 400},
			{FeeItemID: it.FeeItemID, AmountINR: 400},
		}, ErrDuplicatePlanItem},
		{"non-positive amount", []AllocationEntry{
			{FeeItemID: it.FeeItemID, AmountINR: 0},
		}, ErrInvalidAmount},
		{"exceeds balance", []AllocationEntry{
			{FeeItemID: it.FeeItemID, AmountINR: 1500},
		}, ErrInvalidAmount},
		{"unknown item", []AllocationEntry{
			{FeeItemID: uuid.New(), AmountINR: 100},
		}, ledgerSvc.ErrFeeItemNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateIntent(ctx, db, gw, CreateIntentInput{
				SchoolID:        schoolID,
				SchoolStudentID: studentID,
				Plan:            tc.plan,
			})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateIntent_WrongStudent(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	schoolID := uuid.New()
	it := seedFeeItem(t, db, schoolID, uuid.New(), 1000)

	_, err := CreateIntent(context.Background(), db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: uuid.New(), // someone else's item
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 100}},
	})
	require.ErrorIs(t, err, ledgerSvc.ErrFeeItemNotFound)
}

func TestCreateIntent_GatewayDown(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{down: true}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	_, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	// no half-made intent survives a provider outage
	var n int64
	require.NoError(t, db.Model(&model.PaymentIntent{}).Count(&n).Error)
	require.Zero(t, n)
}

/* =========================================================
   VerifyAndCapture
========================================================= */

func TestVerifyAndCapture_HappyPath(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()

	a := seedFeeItem(t, db, schoolID, studentID, 3000)
	b := seedFeeItem(t, db, schoolID, studentID, 2000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan: []AllocationEntry{
			{FeeItemID: a.FeeItemID, AmountINR: 3000},
			{FeeItemID: b.FeeItemID, AmountINR: 1500},
		},
	})
	require.NoError(t, err)

	orderID := intent.PaymentIntentGatewayOrderID
	res, err := VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_abc",
		Signature:        signFor(orderID, "pay_abc"),
	})
	require.NoError(t, err)
	require.False(t, res.AlreadyProcessed)
	require.Equal(t, model.PaymentStatusCompleted, res.Payment.PaymentStatus)
	require.EqualValues(t, 4500, res.Payment.PaymentAmountINR)
	require.NotNil(t, res.Payment.PaymentPaidAt)

	// ledger moved exactly per the frozen plan
	require.EqualValues(t, 3000, paidOf(t, db, a.FeeItemID))
	require.EqualValues(t, 1500, paidOf(t, db, b.FeeItemID))

	// allocations recorded, each carrying the fee item's label snapshot
	var allocs []model.PaymentAllocation
	require.NoError(t, db.Where("payment_allocation_payment_id = ?", res.Payment.PaymentID).Find(&allocs).Error)
	require.Len(t, allocs, 2)
	for _, al := range allocs {
		require.Equal(t, "Tuition — Term 1", al.PaymentAllocationLabel)
	}

	// intent closed
	var got model.PaymentIntent
	require.NoError(t, db.Take(&got, "payment_intent_id = ?", intent.PaymentIntentID).Error)
	require.Equal(t, model.PaymentIntentStatusCompleted, got.PaymentIntentStatus)
}

func TestVerifyAndCapture_BadSignatureBurnsIntent(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)

	orderID := intent.PaymentIntentGatewayOrderID
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_abc",
		Signature:        "forged",
	})
	require.ErrorIs(t, err, ErrBadSignature)

	require.EqualValues(t, 0, paidOf(t, db, it.FeeItemID))
	var n int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&n).Error)
	require.Zero(t, n)

	// the forgery burns the intent
	var got model.PaymentIntent
	require.NoError(t, db.Take(&got, "payment_intent_id = ?", intent.PaymentIntentID).Error)
	require.Equal(t, model.PaymentIntentStatusFailed, got.PaymentIntentStatus)
	require.NotNil(t, got.PaymentIntentFailedReason)
	require.Equal(t, "signature verification failed", *got.PaymentIntentFailedReason)

	// even a correctly signed follow-up cannot revive it
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_abc",
		Signature:        signFor(orderID, "pay_abc"),
	})
	require.ErrorIs(t, err, ErrIntentFailed)
	require.EqualValues(t, 0, paidOf(t, db, it.FeeItemID))
}

func TestVerifyAndCapture_Idempotent(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)
	orderID := intent.PaymentIntentGatewayOrderID

	in := CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_once",
		Signature:        signFor(orderID, "pay_once"),
	}
	first, err := VerifyAndCapture(ctx, db, gw, in)
	require.NoError(t, err)
	require.False(t, first.AlreadyProcessed)

	second, err := VerifyAndCapture(ctx, db, gw, in)
	require.NoError(t, err)
	require.True(t, second.AlreadyProcessed)
	require.Equal(t, first.Payment.PaymentID, second.Payment.PaymentID)

	// the ledger moved exactly once
	require.EqualValues(t, 1000, paidOf(t, db, it.FeeItemID))
	var n int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestVerifyAndCapture_ConcurrentReplays(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)
	orderID := intent.PaymentIntentGatewayOrderID

	const workers = 8
	results := make([]*CaptureResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = VerifyAndCapture(ctx, db, gw, CaptureInput{
				OrderID:          orderID,
				GatewayPaymentID: "pay_race",
				Signature:        signFor(orderID, "pay_race"),
			})
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].Payment)
		if !results[i].AlreadyProcessed {
			fresh++
		}
	}
	require.Equal(t, 1, fresh, "exactly one caller performs the capture")
	require.EqualValues(t, 1000, paidOf(t, db, it.FeeItemID))
}

func TestVerifyAndCapture_AllocationMismatch(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	a := seedFeeItem(t, db, schoolID, studentID, 3000)
	b := seedFeeItem(t, db, schoolID, studentID, 2000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: a.FeeItemID, AmountINR: 2000}},
	})
	require.NoError(t, err)
	orderID := intent.PaymentIntentGatewayOrderID

	// override plan totals 2500, intent is for 2000
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_mis",
		Signature:        signFor(orderID, "pay_mis"),
		Plan: []AllocationEntry{
			{FeeItemID: a.FeeItemID, AmountINR: 2000},
			{FeeItemID: b.FeeItemID, AmountINR: 500},
		},
	})
	require.ErrorIs(t, err, ErrAllocationMismatch)
	require.EqualValues(t, 0, paidOf(t, db, a.FeeItemID))
	require.EqualValues(t, 0, paidOf(t, db, b.FeeItemID))
}

func TestVerifyAndCapture_OverAllocationRollsBackEverything(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	a := seedFeeItem(t, db, schoolID, studentID, 3000)
	b := seedFeeItem(t, db, schoolID, studentID, 2000)

	// two intents both claiming the full balance of item b
	mk := func() *model.PaymentIntent {
		in, err := CreateIntent(ctx, db, gw, CreateIntentInput{
			SchoolID:        schoolID,
			SchoolStudentID: studentID,
			Plan: []AllocationEntry{
				{FeeItemID: a.FeeItemID, AmountINR: 1000},
				{FeeItemID: b.FeeItemID, AmountINR: 2000},
			},
		})
		require.NoError(t, err)
		return in
	}
	first, second := mk(), mk()

	_, err := VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          first.PaymentIntentGatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        signFor(first.PaymentIntentGatewayOrderID, "pay_1"),
	})
	require.NoError(t, err)

	// the second settlement can no longer fit item b: the whole capture,
	// including the leg on item a that would have fit, must roll back
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          second.PaymentIntentGatewayOrderID,
		GatewayPaymentID: "pay_2",
		Signature:        signFor(second.PaymentIntentGatewayOrderID, "pay_2"),
	})
	require.ErrorIs(t, err, ledgerSvc.ErrOverAllocation)

	require.EqualValues(t, 1000, paidOf(t, db, a.FeeItemID))
	require.EqualValues(t, 2000, paidOf(t, db, b.FeeItemID))

	var n int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("payment_gateway_payment_id = ?", "pay_2").Count(&n).Error)
	require.Zero(t, n, "failed capture leaves no payment row")
}

func TestVerifyAndCapture_ConcurrentOverAllocation(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	// two distinct intents both claiming the full balance, settled at once
	mk := func() *model.PaymentIntent {
		in, err := CreateIntent(ctx, db, gw, CreateIntentInput{
			SchoolID:        schoolID,
			SchoolStudentID: studentID,
			Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
		})
		require.NoError(t, err)
		return in
	}
	intents := []*model.PaymentIntent{mk(), mk()}

	errs := make([]error, len(intents))
	var wg sync.WaitGroup
	for i, in := range intents {
		wg.Add(1)
		go func(i int, orderID, payID string) {
			defer wg.Done()
			_, errs[i] = VerifyAndCapture(ctx, db, gw, CaptureInput{
				OrderID:          orderID,
				GatewayPaymentID: payID,
				Signature:        signFor(orderID, payID),
			})
		}(i, in.PaymentIntentGatewayOrderID, fmt.Sprintf("pay_c%d", i))
	}
	wg.Wait()

	// exactly one settlement wins, the other is rejected whole
	won, lost := 0, 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, ledgerSvc.ErrOverAllocation)
			lost++
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)

	require.EqualValues(t, 1000, paidOf(t, db, it.FeeItemID))
	var n int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&n).Error)
	require.EqualValues(t, 1, n, "the losing capture leaves no payment row")
	require.NoError(t, db.Model(&model.PaymentAllocation{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

/* =========================================================
   Expiry
========================================================= */

func TestVerifyAndCapture_ExpiredIntent(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)

	// force the deadline into the past
	require.NoError(t, db.Model(&model.PaymentIntent{}).
		Where("payment_intent_id = ?", intent.PaymentIntentID).
		Update("payment_intent_expires_at", time.Now().Add(-time.Minute)).Error)

	orderID := intent.PaymentIntentGatewayOrderID
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_late",
		Signature:        signFor(orderID, "pay_late"),
	})
	require.ErrorIs(t, err, ErrIntentExpired)
	require.EqualValues(t, 0, paidOf(t, db, it.FeeItemID))
}

func TestSweepExpiredIntents(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	a := seedFeeItem(t, db, schoolID, studentID, 1000)
	b := seedFeeItem(t, db, schoolID, studentID, 1000)

	stale, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID: schoolID, SchoolStudentID: studentID,
		Plan: []AllocationEntry{{FeeItemID: a.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)
	live, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID: schoolID, SchoolStudentID: studentID,
		Plan: []AllocationEntry{{FeeItemID: b.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.PaymentIntent{}).
		Where("payment_intent_id = ?", stale.PaymentIntentID).
		Update("payment_intent_expires_at", time.Now().Add(-time.Hour)).Error)

	n, err := SweepExpiredIntents(ctx, db, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var got model.PaymentIntent
	require.NoError(t, db.Take(&got, "payment_intent_id = ?", stale.PaymentIntentID).Error)
	require.Equal(t, model.PaymentIntentStatusExpired, got.PaymentIntentStatus)
	var gotLive model.PaymentIntent
	require.NoError(t, db.Take(&gotLive, "payment_intent_id = ?", live.PaymentIntentID).Error)
	require.Equal(t, model.PaymentIntentStatusPending, gotLive.PaymentIntentStatus)

	// sweeping again is a no-op
	n, err = SweepExpiredIntents(ctx, db, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)
}

/* =========================================================
   Failure path
========================================================= */

func TestHandleFailure(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID: schoolID, SchoolStudentID: studentID,
		Plan: []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)
	orderID := intent.PaymentIntentGatewayOrderID

	got, err := HandleFailure(ctx, db, orderID, "card declined")
	require.NoError(t, err)
	require.Equal(t, model.PaymentIntentStatusFailed, got.PaymentIntentStatus)
	require.NotNil(t, got.PaymentIntentFailedReason)
	require.Equal(t, "card declined", *got.PaymentIntentFailedReason)

	// the ledger is untouched by failures
	require.EqualValues(t, 0, paidOf(t, db, it.FeeItemID))

	// repeated failure callbacks are a no-op
	_, err = HandleFailure(ctx, db, orderID, "card declined again")
	require.NoError(t, err)

	// failed is terminal: even a correctly signed capture is refused and the
	// ledger stays at zero, a new intent is the only way to pay
	_, err = VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_retry",
		Signature:        signFor(orderID, "pay_retry"),
	})
	require.ErrorIs(t, err, ErrIntentFailed)
	require.EqualValues(t, 0, paidOf(t, db, it.FeeItemID))
	var n int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&n).Error)
	require.Zero(t, n)

	_, err = HandleFailure(ctx, db, "order_unknown", "whatever")
	require.ErrorIs(t, err, ErrIntentNotFound)
}

func TestHandleFailure_AfterCapture(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()
	it := seedFeeItem(t, db, schoolID, studentID, 1000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID: schoolID, SchoolStudentID: studentID,
		Plan: []AllocationEntry{{FeeItemID: it.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)
	orderID := intent.PaymentIntentGatewayOrderID

	res, err := VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_settled",
		Signature:        signFor(orderID, "pay_settled"),
	})
	require.NoError(t, err)

	// a late failure cannot unwind settled money
	_, err = HandleFailure(ctx, db, orderID, "late deny")
	require.ErrorIs(t, err, ErrFailureAfterCapture)
	require.Equal(t, model.PaymentStatusCompleted, res.Payment.PaymentStatus)
	require.EqualValues(t, 1000, paidOf(t, db, it.FeeItemID))
}

/* =========================================================
   Audit trail
========================================================= */

func TestRecordGatewayEvent_Dedup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	mk := func() *model.PaymentGatewayEvent {
		return &model.PaymentGatewayEvent{
			PaymentGatewayEventProvider:    "razorpay",
			PaymentGatewayEventPaymentID:   "pay_evt",
			PaymentGatewayEventType:        "payment.captured",
			PaymentGatewayEventOrderID:     "order_evt",
			PaymentGatewayEventSignatureOK: true,
			PaymentGatewayEventPayload:     []byte(`{"ok":true}`),
		}
	}
	require.NoError(t, RecordGatewayEvent(ctx, db, mk()))
	require.NoError(t, RecordGatewayEvent(ctx, db, mk())) // replayed delivery

	var n int64
	require.NoError(t, db.Model(&model.PaymentGatewayEvent{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestRefundPayment(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()

	a := seedFeeItem(t, db, schoolID, studentID, 3000)
	b := seedFeeItem(t, db, schoolID, studentID, 2000)

	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan: []AllocationEntry{
			{FeeItemID: a.FeeItemID, AmountINR: 3000},
			{FeeItemID: b.FeeItemID, AmountINR: 1500},
		},
	})
	require.NoError(t, err)

	orderID := intent.PaymentIntentGatewayOrderID
	res, err := VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_ref",
		Signature:        signFor(orderID, "pay_ref"),
	})
	require.NoError(t, err)

	p, err := RefundPayment(ctx, db, schoolID, res.Payment.PaymentID)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRefunded, p.PaymentStatus)
	require.NotNil(t, p.PaymentRefundedAt)

	// every allocation backed out of the ledger
	require.EqualValues(t, 0, paidOf(t, db, a.FeeItemID))
	require.EqualValues(t, 0, paidOf(t, db, b.FeeItemID))

	// second refund is a no-op, ledger stays at zero
	p2, err := RefundPayment(ctx, db, schoolID, res.Payment.PaymentID)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRefunded, p2.PaymentStatus)
	require.EqualValues(t, 0, paidOf(t, db, a.FeeItemID))
}

func TestRefundPayment_Guards(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	schoolID, studentID := uuid.New(), uuid.New()

	item := seedFeeItem(t, db, schoolID, studentID, 1000)
	intent, err := CreateIntent(ctx, db, gw, CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: studentID,
		Plan:            []AllocationEntry{{FeeItemID: item.FeeItemID, AmountINR: 1000}},
	})
	require.NoError(t, err)

	orderID := intent.PaymentIntentGatewayOrderID
	res, err := VerifyAndCapture(ctx, db, gw, CaptureInput{
		OrderID:          orderID,
		GatewayPaymentID: "pay_grd",
		Signature:        signFor(orderID, "pay_grd"),
	})
	require.NoError(t, err)

	// unknown payment
	_, err = RefundPayment(ctx, db, schoolID, uuid.New())
	require.ErrorIs(t, err, ErrPaymentNotRefundable)

	// wrong tenant
	_, err = RefundPayment(ctx, db, uuid.New(), res.Payment.PaymentID)
	require.ErrorIs(t, err, ErrPaymentNotRefundable)

	// ledger untouched by the rejected attempts
	require.EqualValues(t, 1000, paidOf(t, db, item.FeeItemID))
}
