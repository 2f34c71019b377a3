// file: internals/features/finance/receipts/route/receipt_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctl "schoolku_backend/internals/features/finance/receipts/controller"
)

// ReceiptUserRoutes mounts receipt issuance and retrieval for authenticated
// users.
func ReceiptUserRoutes(user fiber.Router, db *gorm.DB) {
	h := ctl.NewReceiptController(db)

	g := user.Group("/receipts")
	g.Get("/", h.ListReceipts)
	g.Post("/:payment_id", h.GenerateReceipt)
	g.Get("/:payment_id", h.GetReceipt)
}
