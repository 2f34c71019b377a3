// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	catalogRoute "schoolku_backend/internals/features/finance/catalog/route"
	ledgerRoute "schoolku_backend/internals/features/finance/ledger/route"
	paymentRoute "schoolku_backend/internals/features/finance/payments/route"
	paymentSvc "schoolku_backend/internals/features/finance/payments/service"
	receiptRoute "schoolku_backend/internals/features/finance/receipts/route"
	reminderRoute "schoolku_backend/internals/features/finance/reminders/route"
)

// FinancePublicRoutes: gateway webhooks only. Auth is the signature check
// inside each handler.
func FinancePublicRoutes(public fiber.Router, db *gorm.DB) {
	paymentRoute.PaymentPublicRoutes(public, db)
}

// FinanceUserRoutes: ledger views, checkout, receipts, reminders.
func FinanceUserRoutes(user fiber.Router, db *gorm.DB, v *validator.Validate, gw paymentSvc.GatewayClient) {
	ledgerRoute.LedgerUserRoutes(user, db)
	paymentRoute.PaymentUserRoutes(user, db, v, gw)
	receiptRoute.ReceiptUserRoutes(user, db)
	reminderRoute.ReminderUserRoutes(user, db, v)
}

// FinanceAdminRoutes: catalog management and the gateway audit trail.
func FinanceAdminRoutes(admin fiber.Router, db *gorm.DB, v *validator.Validate) {
	catalogRoute.CatalogAdminRoutes(admin, db, v)
	paymentRoute.PaymentAdminRoutes(admin, db)
}
