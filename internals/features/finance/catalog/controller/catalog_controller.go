// file: internals/features/finance/catalog/controller/catalog_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolku_backend/internals/features/finance/catalog/dto"
	catModel "schoolku_backend/internals/features/finance/catalog/model"
	svc "schoolku_backend/internals/features/finance/catalog/service"
	helper "schoolku_backend/internals/helpers"
)

/* =======================================================
   BOOTSTRAP & HELPERS
======================================================= */

type CatalogController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewCatalogController(db *gorm.DB, v *validator.Validate) *CatalogController {
	return &CatalogController{DB: db, Validator: v}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}

func mapCatalogErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, svc.ErrCategoryNotFound):
		return helper.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, svc.ErrCategoryPublished),
		errors.Is(err, svc.ErrCategoryNotPublished),
		errors.Is(err, svc.ErrCategorySuperseded):
		return helper.JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, svc.ErrNoInstallments),
		errors.Is(err, svc.ErrInstallmentSumMismatch):
		return helper.JsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	return helper.JsonError(c, http.StatusInternalServerError, "internal error")
}

/* =======================================================
   FEE CATEGORIES (ADMIN, TENANT-SCOPED)
======================================================= */

// POST /api/a/fees/categories
func (ctl *CatalogController) CreateCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.FeeCategoryCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	// tenant always comes from the token, never the body
	in.FeeCategorySchoolID = schoolID
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	m := dto.FeeCategoryCreateDTOToModel(in)
	if err := ctl.DB.Create(&m).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to create category")
	}
	return helper.JsonCreated(c, "category created", dto.ToFeeCategoryResponse(m))
}

// GET /api/a/fees/categories?academic_year=&published=&code=
func (ctl *CatalogController) ListCategories(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.Model(&catModel.FeeCategory{}).
		Where("fee_category_school_id = ?", schoolID)
	if ay := strings.TrimSpace(c.Query("academic_year")); ay != "" {
		q = q.Where("fee_category_academic_year = ?", ay)
	}
	if code := strings.TrimSpace(c.Query("code")); code != "" {
		q = q.Where("fee_category_code = ?", code)
	}
	switch strings.ToLower(c.Query("published")) {
	case "true", "1":
		q = q.Where("fee_category_published_at IS NOT NULL")
	case "false", "0":
		q = q.Where("fee_category_published_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to count categories")
	}

	var rows []catModel.FeeCategory
	if err := q.
		Order("fee_category_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to list categories")
	}

	return helper.JsonList(c, "ok", dto.ToFeeCategoryResponses(rows), helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/a/fees/categories/:id
func (ctl *CatalogController) GetCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	m, err := svc.GetCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}

	resp := dto.ToFeeCategoryResponse(*m)

	var insts []catModel.FeeInstallment
	if err := ctl.DB.
		Where("fee_installment_category_id = ?", m.FeeCategoryID).
		Order("fee_installment_sequence ASC").
		Find(&insts).Error; err == nil {
		resp.FeeCategoryInstallments = dto.ToFeeInstallmentResponses(insts)
	}
	var discs []catModel.FeeDiscount
	if err := ctl.DB.
		Where("fee_discount_category_id = ?", m.FeeCategoryID).
		Find(&discs).Error; err == nil {
		resp.FeeCategoryDiscounts = dto.ToFeeDiscountResponses(discs)
	}

	return helper.JsonOK(c, "ok", resp)
}

// PATCH /api/a/fees/categories/:id (drafts only)
func (ctl *CatalogController) UpdateCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	var in dto.FeeCategoryUpdateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	m, err := svc.GetCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	if err := svc.EnsureDraft(m); err != nil {
		return mapCatalogErr(c, err)
	}

	dto.ApplyFeeCategoryUpdate(m, in)
	if err := ctl.DB.Save(m).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to update category")
	}
	return helper.JsonUpdated(c, "category updated", dto.ToFeeCategoryResponse(*m))
}

// POST /api/a/fees/categories/:id/installments (drafts only, replaces the set)
// DeleteCategory removes a draft and its schedule. Published versions are
// immutable and can only be superseded.
func (ctl *CatalogController) DeleteCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	m, err := svc.GetCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	if err := svc.EnsureDraft(m); err != nil {
		return mapCatalogErr(c, err)
	}

	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fee_installment_category_id = ?", id).
			Delete(&catModel.FeeInstallment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("fee_discount_category_id = ?", id).
			Delete(&catModel.FeeDiscount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&catModel.FeeCategory{}, "fee_category_id = ?", id).Error
	})
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to delete category")
	}
	return helper.JsonDeleted(c, "category deleted", fiber.Map{"fee_category_id": id})
}

func (ctl *CatalogController) SetInstallments(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	var in []dto.FeeInstallmentCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if len(in) == 0 {
		return helper.JsonError(c, http.StatusBadRequest, "at least one installment required")
	}
	for i := range in {
		if err := ctl.Validator.Struct(in[i]); err != nil {
			return helper.JsonValidationError(c, helper.ValidationMap(err))
		}
	}

	m, err := svc.GetCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	if err := svc.EnsureDraft(m); err != nil {
		return mapCatalogErr(c, err)
	}

	rows := make([]catModel.FeeInstallment, 0, len(in))
	for _, d := range in {
		rows = append(rows, dto.FeeInstallmentCreateDTOToModel(m.FeeCategoryID, d))
	}

	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("fee_installment_category_id = ?", m.FeeCategoryID).
			Delete(&catModel.FeeInstallment{}).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to save installments")
	}
	return helper.JsonUpdated(c, "installments saved", dto.ToFeeInstallmentResponses(rows))
}

// POST /api/a/fees/categories/:id/discounts (drafts only)
func (ctl *CatalogController) AddDiscount(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	var in dto.FeeDiscountCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	m, err := svc.GetCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	if err := svc.EnsureDraft(m); err != nil {
		return mapCatalogErr(c, err)
	}

	row := dto.FeeDiscountCreateDTOToModel(m.FeeCategoryID, in)
	if err := ctl.DB.Create(&row).Error; err != nil {
		return helper.JsonError(c, http.StatusInternalServerError, "failed to add discount")
	}
	return helper.JsonCreated(c, "discount added", dto.ToFeeDiscountResponse(row))
}

// POST /api/a/fees/categories/:id/publish
func (ctl *CatalogController) PublishCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	m, err := svc.PublishCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	return helper.JsonUpdated(c, "category published", dto.ToFeeCategoryResponse(*m))
}

// POST /api/a/fees/categories/:id/supersede
func (ctl *CatalogController) SupersedeCategory(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid category id")
	}

	n, err := svc.SupersedeCategory(c.Context(), ctl.DB, schoolID, id)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	return helper.JsonCreated(c, "new draft version created", dto.ToFeeCategoryResponse(*n))
}

// POST /api/a/fees/materialize
func (ctl *CatalogController) Materialize(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, http.StatusUnauthorized, "school scope missing")
	}

	var in dto.MaterializeRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "invalid json")
	}
	if err := ctl.Validator.Struct(in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationMap(err))
	}

	inserted, skipped, err := svc.MaterializeForStudent(c.Context(), ctl.DB, schoolID, in.SchoolStudentID, in.FeeCategoryID)
	if err != nil {
		return mapCatalogErr(c, err)
	}
	return helper.JsonOK(c, "materialized", dto.MaterializeResponse{
		SchoolStudentID: in.SchoolStudentID,
		FeeCategoryID:   in.FeeCategoryID,
		Inserted:        inserted,
		Skipped:         skipped,
	})
}
