// file: internals/features/finance/reminders/controller/reminder_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolku_backend/internals/features/finance/reminders/dto"
	svc "schoolku_backend/internals/features/finance/reminders/service"
	helper "schoolku_backend/internals/helpers"
)

type ReminderController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewReminderController(db *gorm.DB, v *validator.Validate) *ReminderController {
	return &ReminderController{DB: db, Validator: v}
}

// GET /api/u/reminders/:student_id
func (ctl *ReminderController) ListReminders(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid student id")
	}

	reminders, err := svc.ComputeReminders(c.Context(), ctl.DB, schoolID, studentID, time.Now())
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to compute reminders")
	}
	return helper.JsonOK(c, "ok", dto.ToReminderResponses(reminders))
}

// POST /api/u/reminders/snooze
func (ctl *ReminderController) SnoozeReminder(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.SnoozeRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	var by *uuid.UUID
	if uid, err := helper.GetUserIDFromToken(c); err == nil {
		by = &uid
	}

	s, err := svc.Snooze(c.Context(), ctl.DB, schoolID, in.FeeItemID, in.Until, by)
	if err != nil {
		if errors.Is(err, svc.ErrSnoozeInPast) {
			return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
		}
		return helper.JsonError(c, http.StatusInternalServerError, "failed to snooze reminder")
	}
	return helper.JsonUpdated(c, "reminder snoozed", dto.ToSnoozeResponse(*s))
}

// GET /api/u/reminders/:student_id/preferences
func (ctl *ReminderController) GetPreferences(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid student id")
	}

	p, err := svc.GetPreferences(c.Context(), ctl.DB, schoolID, studentID)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to load preferences")
	}
	return helper.JsonOK(c, "ok", dto.ToPreferencesResponse(*p))
}

// PUT /api/u/reminders/:student_id/preferences
func (ctl *ReminderController) SetPreferences(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid student id")
	}

	var in dto.PreferencesRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	p, err := svc.SetPreferences(c.Context(), ctl.DB, schoolID, studentID, in.Channels)
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to save preferences")
	}
	return helper.JsonUpdated(c, "preferences saved", dto.ToPreferencesResponse(*p))
}
