// file: internals/features/finance/payments/route/payment_routes.go
package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctl "schoolku_backend/internals/features/finance/payments/controller"
	svc "schoolku_backend/internals/features/finance/payments/service"
	middlewares "schoolku_backend/internals/middlewares"
)

// PaymentUserRoutes mounts checkout, verification, and history for
// authenticated users.
func PaymentUserRoutes(user fiber.Router, db *gorm.DB, v *validator.Validate, gw svc.GatewayClient) {
	h := ctl.NewPaymentController(db, v, gw)

	g := user.Group("/payments")
	g.Post("/intents", middlewares.CheckoutRateLimiter(), h.CreateIntent)
	g.Post("/verify", middlewares.CheckoutRateLimiter(), h.VerifyPayment)
	g.Post("/failure", h.ReportFailure)
	g.Get("/", h.ListPayments)
	g.Get("/:id", h.GetPayment)
}

// PaymentPublicRoutes mounts the gateway callbacks. No auth middleware; the
// signature check inside each handler is the gate.
func PaymentPublicRoutes(public fiber.Router, db *gorm.DB) {
	h := ctl.NewWebhookController(db)

	g := public.Group("/payments/webhooks")
	g.Post("/razorpay", h.RazorpayWebhook)
	g.Post("/midtrans", h.MidtransWebhook)
}

// PaymentAdminRoutes mounts refunds and the audit trail for back-office staff.
func PaymentAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ev := ctl.NewGatewayEventController(db)
	pa := ctl.NewPaymentAdminController(db)

	admin.Get("/payments/gateway-events", ev.ListGatewayEvents)
	admin.Post("/payments/:id/refund", pa.RefundPayment)
}
