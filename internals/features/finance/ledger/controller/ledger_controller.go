// file: internals/features/finance/ledger/controller/ledger_controller.go
package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	dto "schoolku_backend/internals/features/finance/ledger/dto"
	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	svc "schoolku_backend/internals/features/finance/ledger/service"
	helper "schoolku_backend/internals/helpers"
)

type LedgerController struct {
	DB *gorm.DB
}

func NewLedgerController(db *gorm.DB) *LedgerController {
	return &LedgerController{DB: db}
}

// GET /api/u/fees/:student_id?status=OVERDUE
func (ctl *LedgerController) ListStudentFees(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid student id")
	}

	items, err := svc.ListFeeItems(c.Context(), ctl.DB, schoolID, studentID)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to load ledger")
	}

	now := time.Now()
	horizon := configs.UpcomingHorizon()
	if want := strings.ToUpper(strings.TrimSpace(c.Query("status"))); want != "" {
		items = svc.FilterByStatus(items, ledgerModel.FeeItemStatus(want), now, horizon)
	}

	return helper.JsonOK(c, "ok", dto.ToFeeItemResponses(items, now, horizon))
}

// GET /api/u/fees/:student_id/summary
func (ctl *LedgerController) GetStudentSummary(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid student id")
	}

	items, err := svc.ListFeeItems(c.Context(), ctl.DB, schoolID, studentID)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to load ledger")
	}

	now := time.Now()
	horizon := configs.UpcomingHorizon()
	s := svc.Summarize(items, now, horizon)

	return helper.JsonOK(c, "ok", dto.LedgerSummaryResponse{
		SchoolStudentID:  studentID,
		TotalAmountINR:   s.TotalAmountINR,
		TotalPaidINR:     s.TotalPaidINR,
		TotalBalanceINR:  s.TotalBalanceINR,
		NextDueDate:      s.NextDueDate,
		NextDueAmountINR: s.NextDueAmountINR,
		CountByStatus:    s.CountByStatus,
		OverdueCount:     s.CountByStatus[ledgerModel.FeeItemStatusOverdue],
	})
}
