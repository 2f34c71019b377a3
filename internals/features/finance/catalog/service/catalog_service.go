// file: internals/features/finance/catalog/service/catalog_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	catModel "schoolku_backend/internals/features/finance/catalog/model"
	ledgerModel "schoolku_backend/internals/features/finance/ledger/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
)

var (
	ErrCategoryNotFound       = errors.New("fee category not found")
	ErrCategoryPublished      = errors.New("fee category already published")
	ErrCategoryNotPublished   = errors.New("fee category not published")
	ErrCategorySuperseded     = errors.New("fee category already superseded")
	ErrInstallmentSumMismatch = errors.New("installment amounts do not sum to category amount")
	ErrNoInstallments         = errors.New("fee category has no installments")
)

// GetCategory loads one category with its soft-delete filter applied.
func GetCategory(ctx context.Context, db *gorm.DB, schoolID, categoryID uuid.UUID) (*catModel.FeeCategory, error) {
	var m catModel.FeeCategory
	err := db.WithContext(ctx).
		Where("fee_category_id = ? AND fee_category_school_id = ?", categoryID, schoolID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// EnsureDraft rejects any mutation against a published version.
func EnsureDraft(m *catModel.FeeCategory) error {
	if m.IsPublished() {
		return ErrCategoryPublished
	}
	return nil
}

// PublishCategory freezes a draft. The installment schedule must cover the
// base amount exactly; a mismatch aborts with a 422-worthy error carrying
// both numbers so the caller can show them.
func PublishCategory(ctx context.Context, db *gorm.DB, schoolID, categoryID uuid.UUID) (*catModel.FeeCategory, error) {
	var out *catModel.FeeCategory
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := GetCategory(ctx, tx, schoolID, categoryID)
		if err != nil {
			return err
		}
		if m.IsPublished() {
			return ErrCategoryPublished
		}

		var insts []catModel.FeeInstallment
		if err := tx.
			Where("fee_installment_category_id = ?", m.FeeCategoryID).
			Order("fee_installment_sequence ASC").
			Find(&insts).Error; err != nil {
			return err
		}
		if len(insts) == 0 {
			return ErrNoInstallments
		}
		var sum int64
		for _, in := range insts {
			sum += in.FeeInstallmentAmountINR
		}
		if sum != m.FeeCategoryAmountINR {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("installments sum to %d but category amount is %d", sum, m.FeeCategoryAmountINR))
		}

		now := time.Now()
		m.FeeCategoryPublishedAt = &now
		if err := tx.Model(&catModel.FeeCategory{}).
			Where("fee_category_id = ?", m.FeeCategoryID).
			Update("fee_category_published_at", now).Error; err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// SupersedeCategory opens a new draft version that replaces a published one.
// The old version stays readable (existing fee items keep pointing at it);
// only the new draft is editable.
func SupersedeCategory(ctx context.Context, db *gorm.DB, schoolID, categoryID uuid.UUID) (*catModel.FeeCategory, error) {
	var next *catModel.FeeCategory
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := GetCategory(ctx, tx, schoolID, categoryID)
		if err != nil {
			return err
		}
		if !old.IsPublished() {
			return ErrCategoryNotPublished
		}

		var already int64
		if err := tx.Model(&catModel.FeeCategory{}).
			Where("fee_category_supersedes_id = ?", old.FeeCategoryID).
			Count(&already).Error; err != nil {
			return err
		}
		if already > 0 {
			return ErrCategorySuperseded
		}

		n := catModel.FeeCategory{
			FeeCategorySchoolID:     old.FeeCategorySchoolID,
			FeeCategoryAcademicYear: old.FeeCategoryAcademicYear,
			FeeCategoryClassID:      old.FeeCategoryClassID,
			FeeCategorySectionID:    old.FeeCategorySectionID,
			FeeCategoryName:         old.FeeCategoryName,
			FeeCategoryCode:         old.FeeCategoryCode,
			FeeCategoryAmountINR:    old.FeeCategoryAmountINR,
			FeeCategoryMandatory:    old.FeeCategoryMandatory,
			FeeCategoryCadence:      old.FeeCategoryCadence,
			FeeCategoryVersion:      old.FeeCategoryVersion + 1,
			FeeCategorySupersedesID: &old.FeeCategoryID,
		}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}

		// Carry the schedule and discounts over as a starting point.
		var insts []catModel.FeeInstallment
		if err := tx.Where("fee_installment_category_id = ?", old.FeeCategoryID).Find(&insts).Error; err != nil {
			return err
		}
		for i := range insts {
			insts[i].FeeInstallmentID = uuid.Nil
			insts[i].FeeInstallmentCategoryID = n.FeeCategoryID
			insts[i].FeeInstallmentCreatedAt = time.Time{}
		}
		if len(insts) > 0 {
			if err := tx.Create(&insts).Error; err != nil {
				return err
			}
		}
		var discs []catModel.FeeDiscount
		if err := tx.Where("fee_discount_category_id = ?", old.FeeCategoryID).Find(&discs).Error; err != nil {
			return err
		}
		for i := range discs {
			discs[i].FeeDiscountID = uuid.Nil
			discs[i].FeeDiscountCategoryID = n.FeeCategoryID
			discs[i].FeeDiscountCreatedAt = time.Time{}
		}
		if len(discs) > 0 {
			if err := tx.Create(&discs).Error; err != nil {
				return err
			}
		}

		next = &n
		return nil
	})
	return next, err
}

// MaterializeForStudent turns a published category into ledger rows for one
// student. Re-running is safe: an installment that already has a row for the
// student is skipped, so the (inserted, skipped) split reports what happened.
func MaterializeForStudent(ctx context.Context, db *gorm.DB, schoolID, studentID, categoryID uuid.UUID) (inserted, skipped int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := GetCategory(ctx, tx, schoolID, categoryID)
		if err != nil {
			return err
		}
		if !cat.IsPublished() {
			return ErrCategoryNotPublished
		}

		var student studentModel.SchoolStudent
		if err := tx.
			Where("school_student_id = ? AND school_student_school_id = ?", studentID, schoolID).
			Take(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "student not found")
			}
			return err
		}

		var insts []catModel.FeeInstallment
		if err := tx.
			Where("fee_installment_category_id = ?", cat.FeeCategoryID).
			Order("fee_installment_sequence ASC").
			Find(&insts).Error; err != nil {
			return err
		}
		var discs []catModel.FeeDiscount
		if err := tx.Where("fee_discount_category_id = ?", cat.FeeCategoryID).Find(&discs).Error; err != nil {
			return err
		}

		for _, in := range insts {
			var exists int64
			if err := tx.Model(&ledgerModel.FeeItem{}).
				Where("fee_item_school_student_id = ? AND fee_item_installment_id = ?", student.SchoolStudentID, in.FeeInstallmentID).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				skipped++
				continue
			}

			net, cut := applyDiscounts(in.FeeInstallmentAmountINR, discs, &student)
			instID := in.FeeInstallmentID
			item := ledgerModel.FeeItem{
				FeeItemSchoolID:        schoolID,
				FeeItemSchoolStudentID: student.SchoolStudentID,
				FeeItemCategoryID:      cat.FeeCategoryID,
				FeeItemInstallmentID:   &instID,
				FeeItemCategoryName:    cat.FeeCategoryName,
				FeeItemLabel:           fmt.Sprintf("%s — %s", cat.FeeCategoryName, in.FeeInstallmentLabel),
				FeeItemAmountINR:       net,
				FeeItemDiscountINR:     cut,
				FeeItemDueDate:         in.FeeInstallmentDueDate,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	return inserted, skipped, err
}

// applyDiscounts reduces a gross installment amount by every applicable
// discount. Percentages round half-up on the rupee; the net never goes
// below zero.
func applyDiscounts(gross int64, discs []catModel.FeeDiscount, s *studentModel.SchoolStudent) (net, cut int64) {
	net = gross
	for _, d := range discs {
		if !discountApplies(d.FeeDiscountRule, s) {
			continue
		}
		var c int64
		switch d.FeeDiscountType {
		case catModel.FeeDiscountTypePercentage:
			c = decimal.NewFromInt(gross).
				Mul(decimal.NewFromInt(d.FeeDiscountValue)).
				Div(decimal.NewFromInt(100)).
				Round(0).IntPart()
		case catModel.FeeDiscountTypeFixed:
			c = d.FeeDiscountValue
		}
		net -= c
		cut += c
	}
	if net < 0 {
		cut += net
		net = 0
	}
	return net, cut
}

func discountApplies(rule string, s *studentModel.SchoolStudent) bool {
	switch rule {
	case catModel.FeeDiscountRuleAlways, "":
		return true
	case catModel.FeeDiscountRuleSecondSibling:
		return s.SchoolStudentSiblingOrder >= 2
	default:
		log.Printf("[CATALOG] unknown discount rule %q, ignoring", rule)
		return false
	}
}
