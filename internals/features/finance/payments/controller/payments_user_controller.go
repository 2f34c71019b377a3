// file: internals/features/finance/payments/controller/payments_user_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolku_backend/internals/features/finance/payments/dto"
	model "schoolku_backend/internals/features/finance/payments/model"
	svc "schoolku_backend/internals/features/finance/payments/service"
	ledgerSvc "schoolku_backend/internals/features/finance/ledger/service"
	helper "schoolku_backend/internals/helpers"
)

/* =======================================================
   BOOTSTRAP
======================================================= */

type PaymentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Gateway   svc.GatewayClient
}

func NewPaymentController(db *gorm.DB, v *validator.Validate, gw svc.GatewayClient) *PaymentController {
	return &PaymentController{DB: db, Validator: v, Gateway: gw}
}

func mapPaymentErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, svc.ErrBadSignature):
		return helper.JsonError(c, http.StatusBadRequest, "signature verification failed")
	case errors.Is(err, svc.ErrIntentNotFound),
		errors.Is(err, ledgerSvc.ErrFeeItemNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, svc.ErrIntentExpired),
		errors.Is(err, svc.ErrIntentFailed),
		errors.Is(err, svc.ErrFailureAfterCapture):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, svc.ErrEmptyPlan),
		errors.Is(err, svc.ErrDuplicatePlanItem),
		errors.Is(err, svc.ErrAllocationMismatch),
		errors.Is(err, svc.ErrInvalidAmount),
		errors.Is(err, ledgerSvc.ErrOverAllocation):
		return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, svc.ErrGatewayUnavailable):
		c.Set(fiber.HeaderRetryAfter, "30")
		return helper.JsonError(c, http.StatusServiceUnavailable, "payment gateway unavailable, retry later")
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	return helper.JsonError(c, http.StatusBadGateway, "payment gateway error")
}

/* =======================================================
   INTENTS
======================================================= */

// POST /api/u/payments/intents
func (ctl *PaymentController) CreateIntent(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.CreateIntentRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	var payer *uuid.UUID
	if uid, err := helper.GetUserIDFromToken(c); err == nil {
		payer = &uid
	}

	intent, err := svc.CreateIntent(c.Context(), ctl.DB, ctl.Gateway, svc.CreateIntentInput{
		SchoolID:        schoolID,
		SchoolStudentID: in.SchoolStudentID,
		PayerUserID:     payer,
		Plan:            dto.ToServicePlan(in.Plan),
	})
	if err != nil {
		return mapPaymentErr(c, err)
	}
	return helper.JsonCreated(c, "payment intent created", dto.ToPaymentIntentResponse(*intent))
}

/* =======================================================
   VERIFY & FAILURE
======================================================= */

// POST /api/u/payments/verify
func (ctl *PaymentController) VerifyPayment(c *fiber.Ctx) error {
	if _, err := helper.GetSchoolIDFromToken(c); err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.VerifyPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	res, err := svc.VerifyAndCapture(c.Context(), ctl.DB, ctl.Gateway, svc.CaptureInput{
		OrderID:          in.OrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		Signature:        in.Signature,
		Method:           in.Method,
		Plan:             dto.ToServicePlan(in.Plan),
	})
	if err != nil {
		return mapPaymentErr(c, err)
	}

	allocs := ctl.loadAllocations(res.Payment.PaymentID)
	return helper.JsonOK(c, "payment captured", dto.ToPaymentResponse(*res.Payment, allocs, res.AlreadyProcessed))
}

// POST /api/u/payments/failure
func (ctl *PaymentController) ReportFailure(c *fiber.Ctx) error {
	if _, err := helper.GetSchoolIDFromToken(c); err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.FailPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	intent, err := svc.HandleFailure(c.Context(), ctl.DB, in.OrderID, in.Reason)
	if err != nil {
		return mapPaymentErr(c, err)
	}
	return helper.JsonUpdated(c, "failure recorded", dto.ToPaymentIntentResponse(*intent))
}

/* =======================================================
   HISTORY
======================================================= */

// GET /api/u/payments?student_id=&status=&provider=
func (ctl *PaymentController) ListPayments(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.Model(&model.Payment{}).
		Where("payment_school_id = ?", schoolID)
	if sid := strings.TrimSpace(c.Query("student_id")); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid student_id")
		}
		q = q.Where("payment_school_student_id = ?", id)
	}
	if st := strings.TrimSpace(c.Query("status")); st != "" {
		q = q.Where("payment_status = ?", strings.ToLower(st))
	}
	if pv := strings.TrimSpace(c.Query("provider")); pv != "" {
		q = q.Where("payment_provider = ?", strings.ToLower(pv))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to count payments")
	}

	var rows []model.Payment
	if err := q.
		Order("payment_created_at DESC, payment_id DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to list payments")
	}

	return helper.JsonList(c, "ok", dto.ToPaymentResponses(rows), helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/u/payments/:id
func (ctl *PaymentController) GetPayment(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payment id")
	}

	var p model.Payment
	err = ctl.DB.
		Where("payment_id = ? AND payment_school_id = ?", id, schoolID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to load payment")
	}

	allocs := ctl.loadAllocations(p.PaymentID)
	return helper.JsonOK(c, "ok", dto.ToPaymentResponse(p, allocs, false))
}

func (ctl *PaymentController) loadAllocations(paymentID uuid.UUID) []model.PaymentAllocation {
	var allocs []model.PaymentAllocation
	_ = ctl.DB.
		Where("payment_allocation_payment_id = ?", paymentID).
		Order("payment_allocation_created_at ASC").
		Find(&allocs).Error
	return allocs
}
