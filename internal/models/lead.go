package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead statuses. "lead" is the intake state; completed and cancelled are
// terminal. The interested -> processing edge is only crossed automatically
// when all mandatory documents turn valid.
const (
	LeadStatusLead       = "lead"
	LeadStatusInterested = "interested"
	LeadStatusProcessing = "processing"
	LeadStatusCompleted  = "completed"
	LeadStatusCancelled  = "cancelled"
)

const (
	LeadSourceAgent    = "agent"
	LeadSourceOffice   = "office"
	LeadSourceCustomer = "customer"
	LeadSourceSelf     = "self"
)

// Lead is one customer engagement tracked through the approval timeline.
// Leads are soft-deleted only; normal flow never removes them.
type Lead struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName      string         `gorm:"not null;size:255" json:"customer_name"`
	Phone             string         `gorm:"not null;size:20;index" json:"phone"`
	Email             *string        `gorm:"size:255" json:"email,omitempty"`
	Address           string         `gorm:"not null;size:500" json:"address"`
	Source            string         `gorm:"not null;size:20" json:"source"`
	Status            string         `gorm:"not null;size:20;default:'lead';index" json:"status"`
	Remarks           string         `gorm:"size:1000" json:"remarks,omitempty"`
	CreatedBy         uuid.UUID      `gorm:"type:uuid;not null;index" json:"created_by"`
	CustomerAccountID *uuid.UUID     `gorm:"type:uuid;index" json:"customer_account_id,omitempty"`
	InstallerID       *uuid.UUID     `gorm:"type:uuid;index" json:"installer_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Creator   Profile `gorm:"foreignKey:CreatedBy" json:"-"`
	Installer Profile `gorm:"foreignKey:InstallerID" json:"-"`
}
