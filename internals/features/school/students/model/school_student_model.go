// file: internals/features/school/students/model/school_student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ==============================
   MODEL: school_students
============================== */

// SchoolStudent is the owner of fee items in the ledger. Only the fields the
// fee subsystem reads are modeled here; academics live elsewhere.
type SchoolStudent struct {
	SchoolStudentID uuid.UUID `json:"school_student_id" gorm:"column:school_student_id;type:uuid;primaryKey"`

	// Tenant
	SchoolStudentSchoolID uuid.UUID `json:"school_student_school_id" gorm:"column:school_student_school_id;type:uuid;not null;index"`

	SchoolStudentName string  `json:"school_student_name" gorm:"column:school_student_name;type:varchar(120);not null"`
	SchoolStudentCode *string `json:"school_student_code" gorm:"column:school_student_code;type:varchar(40);index"`

	// Cohort (academic year × class × section) used by catalog materialization
	SchoolStudentAcademicYear string     `json:"school_student_academic_year" gorm:"column:school_student_academic_year;type:varchar(9);not null;index"`
	SchoolStudentClassID      *uuid.UUID `json:"school_student_class_id"      gorm:"column:school_student_class_id;type:uuid;index"`
	SchoolStudentSectionID    *uuid.UUID `json:"school_student_section_id"    gorm:"column:school_student_section_id;type:uuid;index"`

	// Sibling order, consulted by discount applicability (e.g. second_sibling)
	SchoolStudentSiblingOrder int `json:"school_student_sibling_order" gorm:"column:school_student_sibling_order;type:int;not null;default:1"`

	SchoolStudentCreatedAt time.Time      `json:"school_student_created_at" gorm:"column:school_student_created_at;not null;default:CURRENT_TIMESTAMP"`
	SchoolStudentUpdatedAt time.Time      `json:"school_student_updated_at" gorm:"column:school_student_updated_at;not null;default:CURRENT_TIMESTAMP"`
	SchoolStudentDeletedAt gorm.DeletedAt `json:"-"                         gorm:"column:school_student_deleted_at;index"`
}

func (SchoolStudent) TableName() string { return "school_students" }

func (m *SchoolStudent) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolStudentID == uuid.Nil {
		m.SchoolStudentID = uuid.New()
	}
	return nil
}
