// file: internals/features/finance/payments/controller/payment_admin_controller.go
package controller

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolku_backend/internals/features/finance/payments/dto"
	model "schoolku_backend/internals/features/finance/payments/model"
	svc "schoolku_backend/internals/features/finance/payments/service"
	helper "schoolku_backend/internals/helpers"
)

/* =======================================================
   PAYMENT ADMIN (refunds)
======================================================= */

type PaymentAdminController struct {
	DB *gorm.DB
}

func NewPaymentAdminController(db *gorm.DB) *PaymentAdminController {
	return &PaymentAdminController{DB: db}
}

// POST /api/a/payments/:id/refund
func (ctl *PaymentAdminController) RefundPayment(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paymentID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payment id")
	}

	p, err := svc.RefundPayment(c.Context(), ctl.DB, schoolID, paymentID)
	if err != nil {
		if errors.Is(err, svc.ErrPaymentNotRefundable) {
			return helper.JsonError(c, http.StatusConflict, err.Error())
		}
		log.Printf("[REFUND] payment %s failed: %v", paymentID, err)
		return helper.JsonError(c, http.StatusInternalServerError, "failed to refund payment")
	}

	var allocs []model.PaymentAllocation
	_ = ctl.DB.Where("payment_allocation_payment_id = ?", p.PaymentID).
		Find(&allocs).Error
	return helper.JsonUpdated(c, "payment refunded", dto.ToPaymentResponse(*p, allocs, false))
}
