// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/constants"
	paymentSvc "schoolku_backend/internals/features/finance/payments/service"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	routeDetails "schoolku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	validate := validator.New()
	gateway := buildGateway()

	log.Println("[INFO] Mounting base routes...")
	BaseRoutes(app, db)

	// ===================== GROUPS =====================

	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	log.Println("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
		}),
	)

	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
		}),
		authMiddleware.RequireRole(constants.FinanceRoles...),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, db)
	routeDetails.FinanceUserRoutes(user, db, validate, gateway)
	routeDetails.FinanceAdminRoutes(admin, db, validate)
}

// buildGateway picks the configured provider. Razorpay is the default;
// Midtrans stays available for deployments that kept it.
func buildGateway() paymentSvc.GatewayClient {
	switch configs.GatewayProvider {
	case paymentSvc.ProviderMidtrans:
		log.Println("[INFO] Payment gateway: midtrans")
		return paymentSvc.NewMidtransGateway(configs.MidtransServerKey, configs.MidtransUseProd)
	default:
		log.Println("[INFO] Payment gateway: razorpay")
		return paymentSvc.NewRazorpayGateway(configs.RazorpayKeyID, configs.RazorpayKeySecret)
	}
}
