// file: internals/features/school/tenants/model/school_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ==============================
   MODEL: schools (tenant)
============================== */

// School carries the tenant display fields consumed at receipt time.
// Provisioning and the rest of the tenant lifecycle live in a separate service.
type School struct {
	SchoolID uuid.UUID `json:"school_id" gorm:"column:school_id;type:uuid;primaryKey"`

	SchoolName    string  `json:"school_name"    gorm:"column:school_name;type:varchar(120);not null"`
	SchoolAddress *string `json:"school_address" gorm:"column:school_address;type:text"`
	SchoolPhone   *string `json:"school_phone"   gorm:"column:school_phone;type:varchar(30)"`
	SchoolEmail   *string `json:"school_email"   gorm:"column:school_email;type:varchar(120)"`

	// Per-school sequence base for receipt numbers
	SchoolNumber int `json:"school_number" gorm:"column:school_number;type:int;not null;default:0"`

	SchoolCreatedAt time.Time      `json:"school_created_at" gorm:"column:school_created_at;not null;default:CURRENT_TIMESTAMP"`
	SchoolUpdatedAt time.Time      `json:"school_updated_at" gorm:"column:school_updated_at;not null;default:CURRENT_TIMESTAMP"`
	SchoolDeletedAt gorm.DeletedAt `json:"-"                 gorm:"column:school_deleted_at;index"`
}

func (School) TableName() string { return "schools" }

func (m *School) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolID == uuid.Nil {
		m.SchoolID = uuid.New()
	}
	return nil
}
