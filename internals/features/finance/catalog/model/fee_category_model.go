// file: internals/features/finance/catalog/model/fee_category_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (must match DB)
================================ */

type FeeCadence string

const (
	FeeCadenceMonthly   FeeCadence = "monthly"
	FeeCadenceQuarterly FeeCadence = "quarterly"
	FeeCadenceAnnual    FeeCadence = "annual"
	FeeCadencePerExam   FeeCadence = "per_exam"
	FeeCadenceOneTime   FeeCadence = "one_time"
)

/* ================================
   MODEL: fee_categories
================================ */

// FeeCategory is one versioned entry of the fee structure catalog for an
// enrollment cohort (academic year × class × section). A published version is
// frozen; changes go through a successor row (supersedes_id), never an edit.
type FeeCategory struct {
	FeeCategoryID uuid.UUID `json:"fee_category_id" gorm:"column:fee_category_id;type:uuid;primaryKey"`

	// Tenant
	FeeCategorySchoolID uuid.UUID `json:"fee_category_school_id" gorm:"column:fee_category_school_id;type:uuid;not null;index"`

	// Cohort scope
	FeeCategoryAcademicYear string     `json:"fee_category_academic_year" gorm:"column:fee_category_academic_year;type:varchar(9);not null;index"`
	FeeCategoryClassID      *uuid.UUID `json:"fee_category_class_id"      gorm:"column:fee_category_class_id;type:uuid;index"`
	FeeCategorySectionID    *uuid.UUID `json:"fee_category_section_id"    gorm:"column:fee_category_section_id;type:uuid;index"`

	FeeCategoryName      string     `json:"fee_category_name"    gorm:"column:fee_category_name;type:varchar(80);not null"`
	FeeCategoryCode      string     `json:"fee_category_code"    gorm:"column:fee_category_code;type:varchar(40);not null;index"`
	FeeCategoryAmountINR int64      `json:"fee_category_amount_inr" gorm:"column:fee_category_amount_inr;type:bigint;not null;check:fee_category_amount_inr>=0"`
	FeeCategoryMandatory bool       `json:"fee_category_mandatory" gorm:"column:fee_category_mandatory;type:boolean;not null;default:true"`
	FeeCategoryCadence   FeeCadence `json:"fee_category_cadence" gorm:"column:fee_category_cadence;type:fee_cadence;not null;default:'one_time'"`

	// Versioning: publish freezes, supersede replaces
	FeeCategoryVersion      int        `json:"fee_category_version"       gorm:"column:fee_category_version;type:int;not null;default:1"`
	FeeCategorySupersedesID *uuid.UUID `json:"fee_category_supersedes_id" gorm:"column:fee_category_supersedes_id;type:uuid;index"`
	FeeCategoryPublishedAt  *time.Time `json:"fee_category_published_at"  gorm:"column:fee_category_published_at"`

	FeeCategoryCreatedAt time.Time      `json:"fee_category_created_at" gorm:"column:fee_category_created_at;not null;default:CURRENT_TIMESTAMP"`
	FeeCategoryUpdatedAt time.Time      `json:"fee_category_updated_at" gorm:"column:fee_category_updated_at;not null;default:CURRENT_TIMESTAMP"`
	FeeCategoryDeletedAt gorm.DeletedAt `json:"-"                       gorm:"column:fee_category_deleted_at;index"`
}

func (FeeCategory) TableName() string { return "fee_categories" }

func (m *FeeCategory) IsPublished() bool { return m.FeeCategoryPublishedAt != nil }

func (m *FeeCategory) BeforeCreate(tx *gorm.DB) error {
	if m.FeeCategoryID == uuid.Nil {
		m.FeeCategoryID = uuid.New()
	}
	now := time.Now()
	if m.FeeCategoryCreatedAt.IsZero() {
		m.FeeCategoryCreatedAt = now
	}
	m.FeeCategoryUpdatedAt = now
	if m.FeeCategoryVersion <= 0 {
		m.FeeCategoryVersion = 1
	}
	return nil
}

func (m *FeeCategory) BeforeUpdate(tx *gorm.DB) error {
	m.FeeCategoryUpdatedAt = time.Now()
	return nil
}
