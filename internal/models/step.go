package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SubmissionTypeForm = "form"
	SubmissionTypeFile = "file"
)

// StepMaster is an admin-managed workflow template step, shared across all
// leads and ordered by OrderIndex.
type StepMaster struct {
	ID                          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StepName                    string                      `gorm:"not null;size:255" json:"step_name"`
	OrderIndex                  int                         `gorm:"not null;uniqueIndex" json:"order_index"`
	AllowedRoles                datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"allowed_roles"`
	RemarksRequired             bool                        `gorm:"default:false" json:"remarks_required"`
	AttachmentsAllowed          bool                        `gorm:"default:true" json:"attachments_allowed"`
	CustomerUpload              bool                        `gorm:"default:false" json:"customer_upload"`
	RequiresInstallerAssignment bool                        `gorm:"default:false" json:"requires_installer_assignment"`
	CreatedAt                   time.Time                   `json:"created_at"`
	UpdatedAt                   time.Time                   `json:"updated_at"`
}

func (StepMaster) TableName() string {
	return "step_master"
}

// RoleAllowed reports whether role may act on this step. Admin always may.
func (s *StepMaster) RoleAllowed(role string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, r := range s.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// StepDocument declares one document category a step requires before it can
// be completed, and whether it arrives as a structured form or a file.
type StepDocument struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StepID           uuid.UUID `gorm:"type:uuid;not null;index" json:"step_id"`
	DocumentCategory string    `gorm:"not null;size:100" json:"document_category"`
	SubmissionType   string    `gorm:"not null;size:10;default:'file'" json:"submission_type"`
	CreatedAt        time.Time `json:"created_at"`

	Step StepMaster `gorm:"foreignKey:StepID" json:"-"`
}
