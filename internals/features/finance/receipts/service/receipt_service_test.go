// file: internals/features/finance/receipts/service/receipt_service_test.go
package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	paymentModel "schoolku_backend/internals/features/finance/payments/model"
	model "schoolku_backend/internals/features/finance/receipts/model"
	schoolModel "schoolku_backend/internals/features/school/tenants/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
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
		&schoolModel.School{},
		&studentModel.SchoolStudent{},
		&paymentModel.Payment{},
		&paymentModel.PaymentAllocation{},
		&model.Receipt{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fixture struct {
	school  schoolModel.School
	student studentModel.SchoolStudent
	payment paymentModel.Payment
}

func seedCompletedPayment(t *testing.T, db *gorm.DB, legs ...int64) fixture {
	t.Helper()

	addr := "12 MG Road, Pune"
	school := schoolModel.School{
		SchoolName:    "Sunrise Public School",
		SchoolAddress: &addr,
		SchoolNumber:  1042,
	}
	require.NoError(t, db.Create(&school).Error)

	code := "STU-0099"
	student := studentModel.SchoolStudent{
		SchoolStudentSchoolID:     school.SchoolID,
		SchoolStudentName:         "Asha Rao",
		SchoolStudentCode:         &code,
		SchoolStudentAcademicYear: "2026-27",
	}
	require.NoError(t, db.Create(&student).Error)

	var total int64
	for _, l := range legs {
		total += l
	}
	now := time.Now()
	method := "upi"
	payment := paymentModel.Payment{
		PaymentSchoolID:         school.SchoolID,
		PaymentSchoolStudentID:  student.SchoolStudentID,
		PaymentIntentID:         uuid.New(),
		PaymentProvider:         "razorpay",
		PaymentGatewayOrderID:   "order_rcpt",
		PaymentGatewayPaymentID: "pay_" + uuid.NewString()[:8],
		PaymentAmountINR:        total,
		PaymentStatus:           paymentModel.PaymentStatusCompleted,
		PaymentMethod:           &method,
		PaymentPaidAt:           &now,
	}
	require.NoError(t, db.Create(&payment).Error)

	for i, l := range legs {
		alloc := paymentModel.PaymentAllocation{
			PaymentAllocationPaymentID: payment.PaymentID,
			PaymentAllocationFeeItemID: uuid.New(),
			PaymentAllocationAmountINR: l,
			PaymentAllocationLabel:     []string{"Tuition — Term 1", "Transport — Term 1", "Lab fee"}[i%3],
		}
		require.NoError(t, db.Create(&alloc).Error)
	}

	return fixture{school: school, student: student, payment: payment}
}

func TestGenerate_SnapshotAndNumbering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f := seedCompletedPayment(t, db, 3000, 1500)

	r, err := Generate(ctx, db, f.school.SchoolID, f.payment.PaymentID)
	require.NoError(t, err)
	require.Equal(t, "RCP-1042-000001", r.ReceiptNumber)
	require.EqualValues(t, 4500, r.ReceiptAmountINR)

	snap, err := ParseSnapshot(r)
	require.NoError(t, err)
	require.Equal(t, "Sunrise Public School", snap.School.Name)
	require.Equal(t, "Asha Rao", snap.Student.Name)
	require.Equal(t, f.payment.PaymentGatewayPaymentID, snap.GatewayPaymentID)
	require.Len(t, snap.Lines, 2)
	require.EqualValues(t, 4500, snap.TotalINR)
}

func TestGenerate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f := seedCompletedPayment(t, db, 2000)

	first, err := Generate(ctx, db, f.school.SchoolID, f.payment.PaymentID)
	require.NoError(t, err)
	second, err := Generate(ctx, db, f.school.SchoolID, f.payment.PaymentID)
	require.NoError(t, err)

	require.Equal(t, first.ReceiptID, second.ReceiptID)
	require.Equal(t, first.ReceiptNumber, second.ReceiptNumber)

	var n int64
	require.NoError(t, db.Model(&model.Receipt{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestGenerate_SequencePerSchool(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := seedCompletedPayment(t, db, 1000)
	b := seedCompletedPayment(t, db, 2000) // different school (school number 1042 again, separate row)

	ra, err := Generate(ctx, db, a.school.SchoolID, a.payment.PaymentID)
	require.NoError(t, err)
	rb, err := Generate(ctx, db, b.school.SchoolID, b.payment.PaymentID)
	require.NoError(t, err)

	// each school starts its own sequence
	require.True(t, strings.HasSuffix(ra.ReceiptNumber, "-000001"))
	require.True(t, strings.HasSuffix(rb.ReceiptNumber, "-000001"))
}

func TestGenerate_Guards(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f := seedCompletedPayment(t, db, 1000)

	// unknown payment
	_, err := Generate(ctx, db, f.school.SchoolID, uuid.New())
	require.ErrorIs(t, err, ErrPaymentNotFound)

	// wrong tenant
	_, err = Generate(ctx, db, uuid.New(), f.payment.PaymentID)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	// failed payment never gets a receipt
	failed := f.payment
	failed.PaymentID = uuid.Nil
	failed.PaymentGatewayPaymentID = "pay_failed"
	failed.PaymentStatus = paymentModel.PaymentStatusFailed
	require.NoError(t, db.Create(&failed).Error)
	_, err = Generate(ctx, db, f.school.SchoolID, failed.PaymentID)
	require.ErrorIs(t, err, ErrPaymentNotCompleted)
}

func TestGenerate_InconsistentAllocations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f := seedCompletedPayment(t, db, 1000)

	// corrupt one allocation so the sum no longer matches
	require.NoError(t, db.Model(&paymentModel.PaymentAllocation{}).
		Where("payment_allocation_payment_id = ?", f.payment.PaymentID).
		Update("payment_allocation_amount_inr", 999).Error)

	_, err := Generate(ctx, db, f.school.SchoolID, f.payment.PaymentID)
	require.ErrorIs(t, err, ErrSnapshotInconsistent)
}

func TestExporters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f := seedCompletedPayment(t, db, 3000, 1500)

	r, err := Generate(ctx, db, f.school.SchoolID, f.payment.PaymentID)
	require.NoError(t, err)
	snap, err := ParseSnapshot(r)
	require.NoError(t, err)

	txt, err := TextExporter{}.Render(snap)
	require.NoError(t, err)
	out := string(txt)
	require.Contains(t, out, "Sunrise Public School")
	require.Contains(t, out, r.ReceiptNumber)
	require.Contains(t, out, "TOTAL")
	require.Contains(t, out, "₹4500")

	html, err := HTMLExporter{}.Render(snap)
	require.NoError(t, err)
	require.Contains(t, string(html), "<table")
	require.Contains(t, string(html), "Asha Rao")
}
