package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SubmitFormRequest struct {
	Data json.RawMessage `json:"data"`
}

type RequiredDocument struct {
	DocumentCategory string `json:"document_category"`
	SubmissionType   string `json:"submission_type"`
}

type SubmissionStatus struct {
	DocumentCategory string     `json:"document_category"`
	SubmissionType   string     `json:"submission_type"`
	Submitted        bool       `json:"submitted"`
	DocumentID       *uuid.UUID `json:"document_id,omitempty"`
}

type DocumentResponse struct {
	ID               uuid.UUID       `json:"id"`
	LeadID           uuid.UUID       `json:"lead_id"`
	Type             string          `json:"type"`
	DocumentCategory string          `json:"document_category"`
	Status           string          `json:"status"`
	IsSubmitted      bool            `json:"is_submitted"`
	FileName         string          `json:"file_name,omitempty"`
	FileSize         int64           `json:"file_size,omitempty"`
	MimeType         string          `json:"mime_type,omitempty"`
	FormJSON         json.RawMessage `json:"form_json,omitempty"`
	SignedURL        string          `json:"signed_url,omitempty"`
}
