// file: internals/seeds/runner.go
package seeds

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	catModel "schoolku_backend/internals/features/finance/catalog/model"
	catService "schoolku_backend/internals/features/finance/catalog/service"
	studentModel "schoolku_backend/internals/features/school/students/model"
	schoolModel "schoolku_backend/internals/features/school/tenants/model"
)

/* ==============================
   DEMO SEED (dev only)
============================== */

// Run seeds a demo school, two students and a published tuition catalog,
// then materializes fee items for both students. Safe to call repeatedly:
// rows are keyed on stable names/codes and materialization skips existing
// items.
func Run(db *gorm.DB) error {
	ctx := context.Background()

	log.Println("[SEED] seeding demo school...")
	school := schoolModel.School{
		SchoolName:   "Sunrise Public School",
		SchoolNumber: 1001,
	}
	if err := db.Where("school_name = ?", school.SchoolName).
		FirstOrCreate(&school).Error; err != nil {
		return err
	}

	log.Println("[SEED] seeding demo students...")
	students := []studentModel.SchoolStudent{
		{
			SchoolStudentSchoolID:     school.SchoolID,
			SchoolStudentName:         "Aarav Sharma",
			SchoolStudentAcademicYear: "2026-27",
			SchoolStudentSiblingOrder: 1,
		},
		{
			SchoolStudentSchoolID:     school.SchoolID,
			SchoolStudentName:         "Isha Sharma",
			SchoolStudentAcademicYear: "2026-27",
			SchoolStudentSiblingOrder: 2,
		},
	}
	for i := range students {
		if err := db.Where(
			"school_student_school_id = ? AND school_student_name = ?",
			school.SchoolID, students[i].SchoolStudentName,
		).FirstOrCreate(&students[i]).Error; err != nil {
			return err
		}
	}

	log.Println("[SEED] seeding tuition catalog...")
	cat := catModel.FeeCategory{
		FeeCategorySchoolID:     school.SchoolID,
		FeeCategoryAcademicYear: "2026-27",
		FeeCategoryName:         "Tuition Fee",
		FeeCategoryCode:         "TUITION",
		FeeCategoryAmountINR:    36000,
		FeeCategoryMandatory:    true,
		FeeCategoryCadence:      catModel.FeeCadenceQuarterly,
	}
	if err := db.Where(
		"fee_category_school_id = ? AND fee_category_code = ?",
		school.SchoolID, cat.FeeCategoryCode,
	).FirstOrCreate(&cat).Error; err != nil {
		return err
	}

	if !cat.IsPublished() {
		quarters := []struct {
			label string
			due   time.Time
		}{
			{"Q1", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)},
			{"Q2", time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)},
			{"Q3", time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
			{"Q4", time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)},
		}
		for i, q := range quarters {
			inst := catModel.FeeInstallment{
				FeeInstallmentCategoryID: cat.FeeCategoryID,
				FeeInstallmentSequence:   i + 1,
				FeeInstallmentLabel:      q.label,
				FeeInstallmentAmountINR:  9000,
				FeeInstallmentDueDate:    q.due,
			}
			if err := db.Where(
				"fee_installment_category_id = ? AND fee_installment_sequence = ?",
				cat.FeeCategoryID, inst.FeeInstallmentSequence,
			).FirstOrCreate(&inst).Error; err != nil {
				return err
			}
		}

		disc := catModel.FeeDiscount{
			FeeDiscountCategoryID: cat.FeeCategoryID,
			FeeDiscountName:       "Sibling Discount",
			FeeDiscountType:       catModel.FeeDiscountTypePercentage,
			FeeDiscountValue:      10,
			FeeDiscountRule:       catModel.FeeDiscountRuleSecondSibling,
		}
		if err := db.Where(
			"fee_discount_category_id = ? AND fee_discount_name = ?",
			cat.FeeCategoryID, disc.FeeDiscountName,
		).FirstOrCreate(&disc).Error; err != nil {
			return err
		}

		if _, err := catService.PublishCategory(ctx, db, school.SchoolID, cat.FeeCategoryID); err != nil {
			return err
		}
		log.Printf("[SEED] published category %s v1", cat.FeeCategoryCode)
	}

	log.Println("[SEED] materializing fee items...")
	for i := range students {
		inserted, skipped, err := catService.MaterializeForStudent(
			ctx, db, school.SchoolID, students[i].SchoolStudentID, cat.FeeCategoryID)
		if err != nil {
			return err
		}
		log.Printf("[SEED] %s: %d inserted, %d skipped",
			students[i].SchoolStudentName, inserted, skipped)
	}

	log.Println("[SEED] done")
	return nil
}
