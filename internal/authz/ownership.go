package authz

import (
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/models"
)

// OwnsLead resolves the AllowOwner decision for a lead: agents own leads
// they created, installers leads assigned to them, customers their own
// engagement.
func OwnsLead(role string, lead *models.Lead, userID uuid.UUID) bool {
	switch role {
	case models.RoleAgent:
		return lead.CreatedBy == userID
	case models.RoleInstaller:
		return lead.InstallerID != nil && *lead.InstallerID == userID
	case models.RoleCustomer:
		return lead.CustomerAccountID != nil && *lead.CustomerAccountID == userID
	}
	return false
}
