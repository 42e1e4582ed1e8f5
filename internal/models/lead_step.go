package models

import (
	"time"

	"github.com/google/uuid"
)

// LeadStep statuses. At most one step per lead is pending under normal
// operation; halted freezes a lead until an admin intervenes.
const (
	StepStatusUpcoming  = "upcoming"
	StepStatusPending   = "pending"
	StepStatusCompleted = "completed"
	StepStatusHalted    = "halted"
)

// LeadStep instantiates a StepMaster for one lead.
type LeadStep struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LeadID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lead_steps_lead_step" json:"lead_id"`
	StepID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lead_steps_lead_step" json:"step_id"`
	Status      string     `gorm:"not null;size:20;default:'upcoming';index" json:"status"`
	CompletedBy *uuid.UUID `gorm:"type:uuid" json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Remarks     string     `gorm:"size:1000" json:"remarks,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lead Lead       `gorm:"foreignKey:LeadID" json:"-"`
	Step StepMaster `gorm:"foreignKey:StepID" json:"step"`
}
