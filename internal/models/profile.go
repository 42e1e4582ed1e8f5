package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles understood by the application. Every profile carries exactly one.
const (
	RoleAdmin     = "admin"
	RoleOffice    = "office"
	RoleAgent     = "agent"
	RoleInstaller = "installer"
	RoleCustomer  = "customer"
)

const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// Profile mirrors the auth identity into the application schema. Disabled
// profiles are denied access regardless of role.
type Profile struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Phone     string         `gorm:"size:20" json:"phone,omitempty"`
	Role      string         `gorm:"size:20;not null;default:'customer';index" json:"role"`
	Status    string         `gorm:"size:20;not null;default:'active'" json:"status"`
	Password  string         `gorm:"not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ValidRole reports whether r is one of the five known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleOffice, RoleAgent, RoleInstaller, RoleCustomer:
		return true
	}
	return false
}
