package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity actions written by the services. The column is free-form text;
// these constants cover the actions the application itself emits.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionStepComplete = "step_complete"
	ActionStepReopen   = "step_reopen"
	ActionStepHalt     = "step_halt"
	ActionStepRollback = "step_rollback"
)

// ActivityLog is the append-only audit trail. Rows are never updated or
// deleted.
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LeadID     *uuid.UUID     `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Action     string         `gorm:"not null;size:50;index" json:"action"`
	EntityType string         `gorm:"not null;size:50" json:"entity_type"`
	EntityID   *uuid.UUID     `gorm:"type:uuid" json:"entity_id,omitempty"`
	OldValue   datatypes.JSON `gorm:"type:jsonb" json:"old_value,omitempty"`
	NewValue   datatypes.JSON `gorm:"type:jsonb" json:"new_value,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
