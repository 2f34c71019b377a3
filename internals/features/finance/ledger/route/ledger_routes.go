// file: internals/features/finance/ledger/route/ledger_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctl "schoolku_backend/internals/features/finance/ledger/controller"
)

// LedgerUserRoutes mounts read-only ledger views for authenticated users.
func LedgerUserRoutes(user fiber.Router, db *gorm.DB) {
	h := ctl.NewLedgerController(db)

	g := user.Group("/fees")
	g.Get("/:student_id", h.ListStudentFees)
	g.Get("/:student_id/summary", h.GetStudentSummary)
}
