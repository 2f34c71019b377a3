// file: internals/features/finance/catalog/dto/fee_category_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catModel "schoolku_backend/internals/features/finance/catalog/model"
)

////////////////////////////////////////////////////////////////////////////////
// FEE CATEGORY — DTO
////////////////////////////////////////////////////////////////////////////////

// Create (draft; installments & discounts attach separately before publish)
type FeeCategoryCreateDTO struct {
	FeeCategorySchoolID uuid.UUID `json:"fee_category_school_id" validate:"required"`

	FeeCategoryAcademicYear string     `json:"fee_category_academic_year" validate:"required,max=9"`
	FeeCategoryClassID      *uuid.UUID `json:"fee_category_class_id,omitempty"`
	FeeCategorySectionID    *uuid.UUID `json:"fee_category_section_id,omitempty"`

	FeeCategoryName      string              `json:"fee_category_name" validate:"required,max=80"`
	FeeCategoryCode      string              `json:"fee_category_code" validate:"required,max=40"` // TUITION/TRANSPORT/LAB/...
	FeeCategoryAmountINR int64               `json:"fee_category_amount_inr" validate:"min=0"`
	FeeCategoryMandatory *bool               `json:"fee_category_mandatory,omitempty"`
	FeeCategoryCadence   catModel.FeeCadence `json:"fee_category_cadence" validate:"required,oneof=monthly quarterly annual per_exam one_time"`
}

// Update (partial; only drafts are editable — service enforces)
type FeeCategoryUpdateDTO struct {
	FeeCategoryAcademicYear *string    `json:"fee_category_academic_year,omitempty" validate:"omitempty,max=9"`
	FeeCategoryClassID      *uuid.UUID `json:"fee_category_class_id,omitempty"`
	FeeCategorySectionID    *uuid.UUID `json:"fee_category_section_id,omitempty"`

	FeeCategoryName      *string              `json:"fee_category_name,omitempty" validate:"omitempty,max=80"`
	FeeCategoryCode      *string              `json:"fee_category_code,omitempty" validate:"omitempty,max=40"`
	FeeCategoryAmountINR *int64               `json:"fee_category_amount_inr,omitempty" validate:"omitempty,min=0"`
	FeeCategoryMandatory *bool                `json:"fee_category_mandatory,omitempty"`
	FeeCategoryCadence   *catModel.FeeCadence `json:"fee_category_cadence,omitempty" validate:"omitempty,oneof=monthly quarterly annual per_exam one_time"`
}

// Response
type FeeCategoryResponse struct {
	FeeCategoryID       uuid.UUID `json:"fee_category_id"`
	FeeCategorySchoolID uuid.UUID `json:"fee_category_school_id"`

	FeeCategoryAcademicYear string     `json:"fee_category_academic_year"`
	FeeCategoryClassID      *uuid.UUID `json:"fee_category_class_id,omitempty"`
	FeeCategorySectionID    *uuid.UUID `json:"fee_category_section_id,omitempty"`

	FeeCategoryName      string              `json:"fee_category_name"`
	FeeCategoryCode      string              `json:"fee_category_code"`
	FeeCategoryAmountINR int64               `json:"fee_category_amount_inr"`
	FeeCategoryMandatory bool                `json:"fee_category_mandatory"`
	FeeCategoryCadence   catModel.FeeCadence `json:"fee_category_cadence"`

	FeeCategoryVersion      int        `json:"fee_category_version"`
	FeeCategorySupersedesID *uuid.UUID `json:"fee_category_supersedes_id,omitempty"`
	FeeCategoryPublishedAt  *time.Time `json:"fee_category_published_at,omitempty"`

	FeeCategoryInstallments []FeeInstallmentResponse `json:"fee_category_installments,omitempty"`
	FeeCategoryDiscounts    []FeeDiscountResponse    `json:"fee_category_discounts,omitempty"`

	FeeCategoryCreatedAt time.Time  `json:"fee_category_created_at"`
	FeeCategoryUpdatedAt time.Time  `json:"fee_category_updated_at"`
	FeeCategoryDeletedAt *time.Time `json:"fee_category_deleted_at,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// FEE INSTALLMENT — DTO
////////////////////////////////////////////////////////////////////////////////

type FeeInstallmentCreateDTO struct {
	FeeInstallmentSequence  int       `json:"fee_installment_sequence" validate:"min=1"`
	FeeInstallmentLabel     string    `json:"fee_installment_label" validate:"required,max=60"`
	FeeInstallmentAmountINR int64     `json:"fee_installment_amount_inr" validate:"required,min=1"`
	FeeInstallmentDueDate   time.Time `json:"fee_installment_due_date" validate:"required"`
}

type FeeInstallmentResponse struct {
	FeeInstallmentID         uuid.UUID `json:"fee_installment_id"`
	FeeInstallmentCategoryID uuid.UUID `json:"fee_installment_category_id"`
	FeeInstallmentSequence   int       `json:"fee_installment_sequence"`
	FeeInstallmentLabel      string    `json:"fee_installment_label"`
	FeeInstallmentAmountINR  int64     `json:"fee_installment_amount_inr"`
	FeeInstallmentDueDate    time.Time `json:"fee_installment_due_date"`
}

////////////////////////////////////////////////////////////////////////////////
// FEE DISCOUNT — DTO
////////////////////////////////////////////////////////////////////////////////

type FeeDiscountCreateDTO struct {
	FeeDiscountName  string                   `json:"fee_discount_name" validate:"required,max=80"`
	FeeDiscountType  catModel.FeeDiscountType `json:"fee_discount_type" validate:"required,oneof=percentage fixed"`
	FeeDiscountValue int64                    `json:"fee_discount_value" validate:"min=0"`
	FeeDiscountRule  string                   `json:"fee_discount_rule" validate:"omitempty,max=40"`
}

type FeeDiscountResponse struct {
	FeeDiscountID         uuid.UUID                `json:"fee_discount_id"`
	FeeDiscountCategoryID uuid.UUID                `json:"fee_discount_category_id"`
	FeeDiscountName       string                   `json:"fee_discount_name"`
	FeeDiscountType       catModel.FeeDiscountType `json:"fee_discount_type"`
	FeeDiscountValue      int64                    `json:"fee_discount_value"`
	FeeDiscountRule       string                   `json:"fee_discount_rule"`
}

////////////////////////////////////////////////////////////////////////////////
// MATERIALIZE — DTO
////////////////////////////////////////////////////////////////////////////////

type MaterializeRequest struct {
	SchoolStudentID uuid.UUID `json:"school_student_id" validate:"required"`
	FeeCategoryID   uuid.UUID `json:"fee_category_id" validate:"required"`
}

type MaterializeResponse struct {
	SchoolStudentID uuid.UUID `json:"school_student_id"`
	FeeCategoryID   uuid.UUID `json:"fee_category_id"`
	Inserted        int       `json:"inserted"`
	Skipped         int       `json:"skipped"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model <-> DTO
////////////////////////////////////////////////////////////////////////////////

func ToFeeCategoryResponse(m catModel.FeeCategory) FeeCategoryResponse {
	return FeeCategoryResponse{
		FeeCategoryID:           m.FeeCategoryID,
		FeeCategorySchoolID:     m.FeeCategorySchoolID,
		FeeCategoryAcademicYear: m.FeeCategoryAcademicYear,
		FeeCategoryClassID:      m.FeeCategoryClassID,
		FeeCategorySectionID:    m.FeeCategorySectionID,
		FeeCategoryName:         m.FeeCategoryName,
		FeeCategoryCode:         m.FeeCategoryCode,
		FeeCategoryAmountINR:    m.FeeCategoryAmountINR,
		FeeCategoryMandatory:    m.FeeCategoryMandatory,
		FeeCategoryCadence:      m.FeeCategoryCadence,
		FeeCategoryVersion:      m.FeeCategoryVersion,
		FeeCategorySupersedesID: m.FeeCategorySupersedesID,
		FeeCategoryPublishedAt:  m.FeeCategoryPublishedAt,
		FeeCategoryCreatedAt:    m.FeeCategoryCreatedAt,
		FeeCategoryUpdatedAt:    m.FeeCategoryUpdatedAt,
		FeeCategoryDeletedAt:    toPtrTimeFromDeletedAt(m.FeeCategoryDeletedAt),
	}
}

func ToFeeCategoryResponses(list []catModel.FeeCategory) []FeeCategoryResponse {
	out := make([]FeeCategoryResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToFeeCategoryResponse(v))
	}
	return out
}

func FeeCategoryCreateDTOToModel(d FeeCategoryCreateDTO) catModel.FeeCategory {
	mandatory := true
	if d.FeeCategoryMandatory != nil {
		mandatory = *d.FeeCategoryMandatory
	}
	return catModel.FeeCategory{
		FeeCategorySchoolID:     d.FeeCategorySchoolID,
		FeeCategoryAcademicYear: d.FeeCategoryAcademicYear,
		FeeCategoryClassID:      d.FeeCategoryClassID,
		FeeCategorySectionID:    d.FeeCategorySectionID,
		FeeCategoryName:         d.FeeCategoryName,
		FeeCategoryCode:         d.FeeCategoryCode,
		FeeCategoryAmountINR:    d.FeeCategoryAmountINR,
		FeeCategoryMandatory:    mandatory,
		FeeCategoryCadence:      d.FeeCategoryCadence,
	}
}

func ApplyFeeCategoryUpdate(m *catModel.FeeCategory, d FeeCategoryUpdateDTO) {
	if d.FeeCategoryAcademicYear != nil {
		m.FeeCategoryAcademicYear = *d.FeeCategoryAcademicYear
	}
	if d.FeeCategoryClassID != nil {
		m.FeeCategoryClassID = d.FeeCategoryClassID
	}
	if d.FeeCategorySectionID != nil {
		m.FeeCategorySectionID = d.FeeCategorySectionID
	}
	if d.FeeCategoryName != nil {
		m.FeeCategoryName = *d.FeeCategoryName
	}
	if d.FeeCategoryCode != nil {
		m.FeeCategoryCode = *d.FeeCategoryCode
	}
	if d.FeeCategoryAmountINR != nil {
		m.FeeCategoryAmountINR = *d.FeeCategoryAmountINR
	}
	if d.FeeCategoryMandatory != nil {
		m.FeeCategoryMandatory = *d.FeeCategoryMandatory
	}
	if d.FeeCategoryCadence != nil {
		m.FeeCategoryCadence = *d.FeeCategoryCadence
	}
}

func FeeInstallmentCreateDTOToModel(categoryID uuid.UUID, d FeeInstallmentCreateDTO) catModel.FeeInstallment {
	return catModel.FeeInstallment{
		FeeInstallmentCategoryID: categoryID,
		FeeInstallmentSequence:   d.FeeInstallmentSequence,
		FeeInstallmentLabel:      d.FeeInstallmentLabel,
		FeeInstallmentAmountINR:  d.FeeInstallmentAmountINR,
		FeeInstallmentDueDate:    d.FeeInstallmentDueDate,
	}
}

func ToFeeInstallmentResponse(m catModel.FeeInstallment) FeeInstallmentResponse {
	return FeeInstallmentResponse{
		FeeInstallmentID:         m.FeeInstallmentID,
		FeeInstallmentCategoryID: m.FeeInstallmentCategoryID,
		FeeInstallmentSequence:   m.FeeInstallmentSequence,
		FeeInstallmentLabel:      m.FeeInstallmentLabel,
		FeeInstallmentAmountINR:  m.FeeInstallmentAmountINR,
		FeeInstallmentDueDate:    m.FeeInstallmentDueDate,
	}
}

func ToFeeInstallmentResponses(list []catModel.FeeInstallment) []FeeInstallmentResponse {
	out := make([]FeeInstallmentResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToFeeInstallmentResponse(v))
	}
	return out
}

func FeeDiscountCreateDTOToModel(categoryID uuid.UUID, d FeeDiscountCreateDTO) catModel.FeeDiscount {
	rule := d.FeeDiscountRule
	if rule == "" {
		rule = catModel.FeeDiscountRuleAlways
	}
	return catModel.FeeDiscount{
		FeeDiscountCategoryID: categoryID,
		FeeDiscountName:       d.FeeDiscountName,
		FeeDiscountType:       d.FeeDiscountType,
		FeeDiscountValue:      d.FeeDiscountValue,
		FeeDiscountRule:       rule,
	}
}

func ToFeeDiscountResponse(m catModel.FeeDiscount) FeeDiscountResponse {
	return FeeDiscountResponse{
		FeeDiscountID:         m.FeeDiscountID,
		FeeDiscountCategoryID: m.FeeDiscountCategoryID,
		FeeDiscountName:       m.FeeDiscountName,
		FeeDiscountType:       m.FeeDiscountType,
		FeeDiscountValue:      m.FeeDiscountValue,
		FeeDiscountRule:       m.FeeDiscountRule,
	}
}

func ToFeeDiscountResponses(list []catModel.FeeDiscount) []FeeDiscountResponse {
	out := make([]FeeDiscountResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToFeeDiscountResponse(v))
	}
	return out
}

func toPtrTimeFromDeletedAt(d gorm.DeletedAt) *time.Time {
	if d.Valid {
		t := d.Time
		return &t
	}
	return nil
}
