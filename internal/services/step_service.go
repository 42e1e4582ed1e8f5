package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StepService manages the shared workflow template (step_master rows and
// their document requirements). Admin-managed; route middleware gates
// writes.
type StepService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewStepService(db *gorm.DB, activity *ActivityService) *StepService {
	return &StepService{db: db, activity: activity}
}

func (s *StepService) List() ([]models.StepMaster, error) {
	var steps []models.StepMaster
	if err := s.db.Order("order_index ASC").Find(&steps).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return steps, nil
}

func (s *StepService) Get(stepID uuid.UUID) (*models.StepMaster, error) {
	var step models.StepMaster
	if err := s.db.First(&step, "id = ?", stepID).Error; err != nil {
		return nil, apperr.NotFound("step not found")
	}
	return &step, nil
}

func (s *StepService) Create(req *dto.CreateStepRequest, actor *session.Identity) (*models.StepMaster, error) {
	if strings.TrimSpace(req.StepName) == "" {
		return nil, apperr.Validation("step_name is required")
	}
	if req.OrderIndex < 1 {
		return nil, apperr.Validation("order_index must be positive")
	}
	for _, r := range req.AllowedRoles {
		if !models.ValidRole(r) {
			return nil, apperr.Validation("unknown role in allowed_roles: " + r)
		}
	}

	var clash int64
	if err := s.db.Model(&models.StepMaster{}).Where("order_index = ?", req.OrderIndex).Count(&clash).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if clash > 0 {
		return nil, apperr.Conflict("a step already exists at that order index")
	}

	step := models.StepMaster{
		ID:                          uuid.New(),
		StepName:                    req.StepName,
		OrderIndex:                  req.OrderIndex,
		AllowedRoles:                datatypes.NewJSONSlice(req.AllowedRoles),
		RemarksRequired:             req.RemarksRequired,
		AttachmentsAllowed:          req.AttachmentsAllowed,
		CustomerUpload:              req.CustomerUpload,
		RequiresInstallerAssignment: req.RequiresInstallerAssignment,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&step).Error; err != nil {
			return err
		}
		for _, d := range req.Documents {
			if d.SubmissionType != models.SubmissionTypeForm && d.SubmissionType != models.SubmissionTypeFile {
				return apperr.Validation("submission_type must be form or file")
			}
			doc := models.StepDocument{
				ID:               uuid.New(),
				StepID:           step.ID,
				DocumentCategory: d.DocumentCategory,
				SubmissionType:   d.SubmissionType,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionCreate,
		EntityType: "step_master",
		EntityID:   &step.ID,
		NewValue:   jsonValue(step),
	})
	return &step, nil
}

func (s *StepService) Update(stepID uuid.UUID, req *dto.UpdateStepRequest, actor *session.Identity) (*models.StepMaster, error) {
	step, err := s.Get(stepID)
	if err != nil {
		return nil, err
	}

	old := jsonValue(step)
	updates := map[string]interface{}{}
	if req.StepName != nil {
		updates["step_name"] = *req.StepName
	}
	if req.AllowedRoles != nil {
		for _, r := range *req.AllowedRoles {
			if !models.ValidRole(r) {
				return nil, apperr.Validation("unknown role in allowed_roles: " + r)
			}
		}
		updates["allowed_roles"] = datatypes.NewJSONSlice(*req.AllowedRoles)
	}
	if req.RemarksRequired != nil {
		updates["remarks_required"] = *req.RemarksRequired
	}
	if req.AttachmentsAllowed != nil {
		updates["attachments_allowed"] = *req.AttachmentsAllowed
	}
	if req.CustomerUpload != nil {
		updates["customer_upload"] = *req.CustomerUpload
	}
	if req.RequiresInstallerAssignment != nil {
		updates["requires_installer_assignment"] = *req.RequiresInstallerAssignment
	}
	if len(updates) == 0 {
		return step, nil
	}

	if err := s.db.Model(step).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "step_master",
		EntityID:   &step.ID,
		OldValue:   old,
		NewValue:   jsonValue(step),
	})
	return step, nil
}

// Delete removes an unused template step. Steps already instantiated on a
// lead cannot be removed.
func (s *StepService) Delete(stepID uuid.UUID, actor *session.Identity) error {
	step, err := s.Get(stepID)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.LeadStep{}).Where("step_id = ?", stepID).Count(&inUse).Error; err != nil {
		return apperr.Internal(err)
	}
	if inUse > 0 {
		return apperr.Conflict("step is in use by existing leads")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("step_id = ?", stepID).Delete(&models.StepDocument{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StepMaster{}, "id = ?", stepID).Error
	})
	if err != nil {
		return apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionDelete,
		EntityType: "step_master",
		EntityID:   &stepID,
		OldValue:   jsonValue(step),
	})
	return nil
}

// Reorder rewrites order_index for the given steps in one transaction.
// Indexes are staged out of range first so the unique constraint never
// trips mid-swap.
func (s *StepService) Reorder(req *dto.ReorderRequest, actor *session.Identity) error {
	if len(req.Steps) == 0 {
		return apperr.Validation("steps is required")
	}

	seen := make(map[int]bool, len(req.Steps))
	for _, e := range req.Steps {
		if e.OrderIndex < 1 {
			return apperr.Validation("order_index must be positive")
		}
		if seen[e.OrderIndex] {
			return apperr.Validation("duplicate order_index in request")
		}
		seen[e.OrderIndex] = true
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, e := range req.Steps {
			res := tx.Model(&models.StepMaster{}).
				Where("id = ?", e.StepID).
				Update("order_index", -(i + 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("step not found: " + e.StepID.String())
			}
		}
		for _, e := range req.Steps {
			if err := tx.Model(&models.StepMaster{}).
				Where("id = ?", e.StepID).
				Update("order_index", e.OrderIndex).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.From(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "step_master",
		NewValue:   jsonValue(req.Steps),
	})
	return nil
}
