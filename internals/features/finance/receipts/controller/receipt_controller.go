// file: internals/features/finance/receipts/controller/receipt_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/finance/receipts/model"
	svc "schoolku_backend/internals/features/finance/receipts/service"
	helper "schoolku_backend/internals/helpers"
)

type ReceiptController struct {
	DB *gorm.DB
}

func NewReceiptController(db *gorm.DB) *ReceiptController {
	return &ReceiptController{DB: db}
}

func mapReceiptErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, svc.ErrPaymentNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, svc.ErrPaymentNotCompleted):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, svc.ErrSnapshotInconsistent):
		return helper.JsonError(c, http.StatusInternalServerError, err.Error())
	}
	return helper.JsonError(c, http.StatusInternalServerError, "failed to issue receipt")
}

// POST /api/u/receipts/:payment_id
// Issues the receipt for a completed payment; re-posting returns the same
// receipt (numbers are assigned once).
func (ctl *ReceiptController) GenerateReceipt(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paymentID, err := uuid.Parse(strings.TrimSpace(c.Params("payment_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payment id")
	}

	r, err := svc.Generate(c.Context(), ctl.DB, schoolID, paymentID)
	if err != nil {
		return mapReceiptErr(c, err)
	}
	return helper.JsonCreated(c, "receipt issued", r)
}

// GET /api/u/receipts/:payment_id
// Content negotiation: JSON by default, plain text and HTML renders via
// Accept. PDF is not produced server-side; 406 points at the alternatives.
func (ctl *ReceiptController) GetReceipt(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paymentID, err := uuid.Parse(strings.TrimSpace(c.Params("payment_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid payment id")
	}

	var r model.Receipt
	err = ctl.DB.
		Where("receipt_payment_id = ? AND receipt_school_id = ?", paymentID, schoolID).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, http.StatusNotFound, "receipt not found")
	}
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to load receipt")
	}

	switch c.Accepts("application/json", "text/plain", "text/html", "application/pdf") {
	case "text/plain":
		return ctl.render(c, &r, svc.TextExporter{})
	case "text/html":
		return ctl.render(c, &r, svc.HTMLExporter{})
	case "application/pdf":
		c.Set("Accept-Post", "application/json, text/plain, text/html")
		return helper.JsonError(c, http.StatusNotAcceptable,
			"pdf export is not available; use text/html and print, or application/json")
	default:
		return helper.JsonOK(c, "ok", r)
	}
}

func (ctl *ReceiptController) render(c *fiber.Ctx, r *model.Receipt, ex svc.Exporter) error {
	snap, err := svc.ParseSnapshot(r)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "receipt snapshot unreadable")
	}
	out, err := ex.Render(snap)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to render receipt")
	}
	c.Set(fiber.HeaderContentType, ex.ContentType())
	return c.Status(http.StatusOK).Send(out)
}

// GET /api/u/receipts?student_id=
func (ctl *ReceiptController) ListReceipts(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.Model(&model.Receipt{}).
		Where("receipt_school_id = ?", schoolID)
	if sid := strings.TrimSpace(c.Query("student_id")); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			return helper.JsonError(c, http.StatusBadRequest, "invalid student_id")
		}
		q = q.Where("receipt_school_student_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to count receipts")
	}

	var rows []model.Receipt
	if err := q.
		Order("receipt_issued_at DESC, receipt_id DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to list receipts")
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}
