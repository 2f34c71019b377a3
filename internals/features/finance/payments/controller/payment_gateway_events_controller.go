// file: internals/features/finance/payments/controller/payment_gateway_events_controller.go
package controller

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	model "schoolku_backend/internals/features/finance/payments/model"
	helper "schoolku_backend/internals/helpers"
)

/* =======================================================
   GATEWAY EVENT AUDIT TRAIL (ADMIN)
======================================================= */

type GatewayEventController struct {
	DB *gorm.DB
}

func NewGatewayEventController(db *gorm.DB) *GatewayEventController {
	return &GatewayEventController{DB: db}
}

// GET /api/a/payments/gateway-events?provider=&order_id=&signature_ok=
func (ctl *GatewayEventController) ListGatewayEvents(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.Model(&model.PaymentGatewayEvent{})
	if pv := strings.TrimSpace(c.Query("provider")); pv != "" {
		q = q.Where("payment_gateway_event_provider = ?", strings.ToLower(pv))
	}
	if oid := strings.TrimSpace(c.Query("order_id")); oid != "" {
		q = q.Where("payment_gateway_event_order_id = ?", oid)
	}
	switch strings.ToLower(c.Query("signature_ok")) {
	case "true", "1":
		q = q.Where("payment_gateway_event_signature_ok = ?", true)
	case "false", "0":
		q = q.Where("payment_gateway_event_signature_ok = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to count events")
	}

	var rows []model.PaymentGatewayEvent
	if err := q.
		Order("payment_gateway_event_received_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to list events")
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}
