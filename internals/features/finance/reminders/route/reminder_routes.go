// file: internals/features/finance/reminders/route/reminder_routes.go
package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctl "schoolku_backend/internals/features/finance/reminders/controller"
)

// ReminderUserRoutes mounts reminder views, snoozing, and channel
// preferences for authenticated users.
func ReminderUserRoutes(user fiber.Router, db *gorm.DB, v *validator.Validate) {
	h := ctl.NewReminderController(db, v)

	g := user.Group("/reminders")
	g.Post("/snooze", h.SnoozeReminder)
	g.Get("/:student_id", h.ListReminders)
	g.Get("/:student_id/preferences", h.GetPreferences)
	g.Put("/:student_id/preferences", h.SetPreferences)
}
