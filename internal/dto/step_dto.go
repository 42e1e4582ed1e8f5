package dto

import "github.com/google/uuid"

type CreateStepRequest struct {
	StepName                    string             `json:"step_name"`
	OrderIndex                  int                `json:"order_index"`
	AllowedRoles                []string           `json:"allowed_roles"`
	RemarksRequired             bool               `json:"remarks_required"`
	AttachmentsAllowed          bool               `json:"attachments_allowed"`
	CustomerUpload              bool               `json:"customer_upload"`
	RequiresInstallerAssignment bool               `json:"requires_installer_assignment"`
	Documents                   []RequiredDocument `json:"documents,omitempty"`
}

type UpdateStepRequest struct {
	StepName                    *string   `json:"step_name,omitempty"`
	AllowedRoles                *[]string `json:"allowed_roles,omitempty"`
	RemarksRequired             *bool     `json:"remarks_required,omitempty"`
	AttachmentsAllowed          *bool     `json:"attachments_allowed,omitempty"`
	CustomerUpload              *bool     `json:"customer_upload,omitempty"`
	RequiresInstallerAssignment *bool     `json:"requires_installer_assignment,omitempty"`
}

type ReorderEntry struct {
	StepID     uuid.UUID `json:"step_id"`
	OrderIndex int       `json:"order_index"`
}

type ReorderRequest struct {
	Steps []ReorderEntry `json:"steps"`
}
