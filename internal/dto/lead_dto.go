package dto

import (
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/models"
)

type CreateLeadRequest struct {
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email,omitempty"`
	Address      string  `json:"address"`
	Source       string  `json:"source"`
	Remarks      string  `json:"remarks,omitempty"`
}

type UpdateLeadRequest struct {
	CustomerName *string `json:"customer_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`
	Remarks      *string `json:"remarks,omitempty"`
}

type TransitionRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

type AssignInstallerRequest struct {
	InstallerID uuid.UUID `json:"installer_id"`
}

type LeadListResponse struct {
	Leads []models.Lead `json:"leads"`
	Pagination
}
