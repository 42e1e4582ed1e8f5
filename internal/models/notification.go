package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message for one user, written as a side effect
// of status changes and step completions.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	LeadID    *uuid.UUID `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	Title     string     `gorm:"not null;size:255" json:"title"`
	Message   string     `gorm:"not null;size:1000" json:"message"`
	Read      bool       `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
