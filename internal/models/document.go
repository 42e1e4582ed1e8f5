package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DocumentTypeMandatory = "mandatory"
	DocumentTypeCustomer  = "customer"
)

const (
	DocumentStatusValid     = "valid"
	DocumentStatusCorrupted = "corrupted"
)

// Document is a submitted artifact for a lead: either an uploaded file
// (file metadata set) or a structured form (FormJSON set). At most one
// valid row exists per (lead, category); resubmission replaces the old row.
type Document struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LeadID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_documents_lead_category" json:"lead_id"`
	Type             string         `gorm:"not null;size:20;default:'mandatory'" json:"type"`
	DocumentCategory string         `gorm:"not null;size:100;index:idx_documents_lead_category" json:"document_category"`
	Status           string         `gorm:"not null;size:20;default:'valid'" json:"status"`
	IsSubmitted      bool           `gorm:"default:true" json:"is_submitted"`
	FilePath         string         `gorm:"size:500" json:"file_path,omitempty"`
	FileName         string         `gorm:"size:255" json:"file_name,omitempty"`
	FileSize         int64          `json:"file_size,omitempty"`
	MimeType         string         `gorm:"size:100" json:"mime_type,omitempty"`
	FormJSON         datatypes.JSON `gorm:"type:jsonb" json:"form_json,omitempty"`
	UploadedBy       uuid.UUID      `gorm:"type:uuid;not null" json:"uploaded_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Lead Lead `gorm:"foreignKey:LeadID" json:"-"`
}
