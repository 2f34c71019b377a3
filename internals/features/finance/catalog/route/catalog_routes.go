// file: internals/features/finance/catalog/route/catalog_routes.go
package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctl "schoolku_backend/internals/features/finance/catalog/controller"
)

// CatalogAdminRoutes mounts the fee structure catalog under an
// already-authenticated admin group.
func CatalogAdminRoutes(admin fiber.Router, db *gorm.DB, v *validator.Validate) {
	h := ctl.NewCatalogController(db, v)

	g := admin.Group("/fees")
	g.Post("/categories", h.CreateCategory)
	g.Get("/categories", h.ListCategories)
	g.Get("/categories/:id", h.GetCategory)
	g.Patch("/categories/:id", h.UpdateCategory)
	g.Delete("/categories/:id", h.DeleteCategory)
	g.Post("/categories/:id/installments", h.SetInstallments)
	g.Post("/categories/:id/discounts", h.AddDiscount)
	g.Post("/categories/:id/publish", h.PublishCategory)
	g.Post("/categories/:id/supersede", h.SupersedeCategory)
	g.Post("/materialize", h.Materialize)
}
