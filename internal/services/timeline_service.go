package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/authz"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"gorm.io/gorm"
)

// TimelineService drives the per-lead step machine: upcoming -> pending ->
// completed, with admin halt and rollback. Multi-row mutations run in one
// transaction.
type TimelineService struct {
	db       *gorm.DB
	docs     *DocumentService
	activity *ActivityService
	notify   *NotificationService
}

func NewTimelineService(db *gorm.DB, docs *DocumentService, activity *ActivityService, notify *NotificationService) *TimelineService {
	return &TimelineService{db: db, docs: docs, activity: activity, notify: notify}
}

// instantiate creates one LeadStep per StepMaster for the lead, first
// pending and the rest upcoming. Runs inside the caller's transaction.
func (s *TimelineService) instantiate(tx *gorm.DB, leadID uuid.UUID) error {
	var existing int64
	if err := tx.Model(&models.LeadStep{}).Where("lead_id = ?", leadID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	var masters []models.StepMaster
	if err := tx.Order("order_index ASC").Find(&masters).Error; err != nil {
		return err
	}

	for i, m := range masters {
		status := models.StepStatusUpcoming
		if i == 0 {
			status = models.StepStatusPending
		}
		step := models.LeadStep{
			ID:     uuid.New(),
			LeadID: leadID,
			StepID: m.ID,
			Status: status,
		}
		if err := tx.Create(&step).Error; err != nil {
			return err
		}
	}
	return nil
}

// Timeline returns the lead's steps in template order.
func (s *TimelineService) Timeline(leadID uuid.UUID, actor *session.Identity) ([]models.LeadStep, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	switch authz.Check(actor.Role, "timeline", "read") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not view timelines")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}

	var steps []models.LeadStep
	err := s.db.Preload("Step").
		Joins("JOIN step_master ON step_master.id = lead_steps.step_id").
		Where("lead_steps.lead_id = ?", leadID).
		Order("step_master.order_index ASC").
		Find(&steps).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return steps, nil
}

// loadStep fetches a lead step and binds it to the lead named in the
// request. A step belonging to a different lead is reported as missing,
// never acted on.
func (s *TimelineService) loadStep(leadID, leadStepID uuid.UUID) (*models.LeadStep, error) {
	var step models.LeadStep
	if err := s.db.Preload("Step").Preload("Lead").First(&step, "id = ?", leadStepID).Error; err != nil {
		return nil, apperr.NotFound("lead step not found")
	}
	if step.LeadID != leadID {
		return nil, apperr.NotFound("lead step not found")
	}
	return &step, nil
}

// CompleteStep marks a pending step completed and advances the next step
// to pending. The step's required documents gate completion.
func (s *TimelineService) CompleteStep(leadID, leadStepID uuid.UUID, remarks string, actor *session.Identity) (*models.LeadStep, error) {
	step, err := s.loadStep(leadID, leadStepID)
	if err != nil {
		return nil, err
	}

	switch authz.Check(actor.Role, "timeline", "complete") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not complete steps")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &step.Lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}
	if !step.Step.RoleAllowed(actor.Role) {
		return nil, apperr.Forbidden("role may not complete this step")
	}
	if step.Status != models.StepStatusPending {
		return nil, apperr.InvalidTransition(
			fmt.Sprintf("only pending steps can be completed; step is %s", step.Status))
	}
	if step.Step.RemarksRequired && remarks == "" {
		return nil, apperr.Validation("this step requires remarks")
	}
	if step.Step.RequiresInstallerAssignment && step.Lead.InstallerID == nil {
		return nil, apperr.PreconditionFailed("an installer must be assigned before completing this step")
	}

	satisfied, err := s.docs.AllSatisfied(step.LeadID, step.StepID)
	if err != nil {
		return nil, err
	}
	if !satisfied {
		return nil, apperr.PreconditionFailed("required documents for this step are not all submitted")
	}

	now := time.Now()
	leadCompleted := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LeadStep{}).
			Where("id = ?", step.ID).
			Updates(map[string]interface{}{
				"status":       models.StepStatusCompleted,
				"completed_by": actor.UserID,
				"completed_at": now,
				"remarks":      remarks,
			}).Error; err != nil {
			return err
		}

		next, err := nextStep(tx, step.LeadID, step.Step.OrderIndex)
		if err != nil {
			return err
		}
		if next != nil {
			if next.Status == models.StepStatusUpcoming {
				if err := tx.Model(&models.LeadStep{}).
					Where("id = ?", next.ID).
					Update("status", models.StepStatusPending).Error; err != nil {
					return err
				}
			}
			return nil
		}

		// Final step done: a processing lead is completed.
		res := tx.Model(&models.Lead{}).
			Where("id = ? AND status = ?", step.LeadID, models.LeadStatusProcessing).
			Update("status", models.LeadStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		leadCompleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &step.LeadID,
		UserID:     actor.UserID,
		Action:     models.ActionStepComplete,
		EntityType: "lead_step",
		EntityID:   &step.ID,
		OldValue:   jsonValue(map[string]string{"status": models.StepStatusPending}),
		NewValue:   jsonValue(map[string]string{"status": models.StepStatusCompleted, "remarks": remarks}),
	})
	if leadCompleted {
		s.activity.Record(models.ActivityLog{
			LeadID:     &step.LeadID,
			UserID:     actor.UserID,
			Action:     models.ActionStatusChange,
			EntityType: "lead",
			EntityID:   &step.LeadID,
			OldValue:   jsonValue(map[string]string{"status": models.LeadStatusProcessing}),
			NewValue:   jsonValue(map[string]string{"status": models.LeadStatusCompleted}),
		})
	}
	if step.Lead.CustomerAccountID != nil {
		s.notify.Notify(*step.Lead.CustomerAccountID, &step.LeadID,
			"Step completed",
			fmt.Sprintf("%q has been completed", step.Step.StepName))
	}

	step.Status = models.StepStatusCompleted
	step.CompletedBy = &actor.UserID
	step.CompletedAt = &now
	step.Remarks = remarks
	return step, nil
}

// ReopenStep resets a completed step to pending, clearing its completion
// data. Non-admin actors must be allowed on the step.
func (s *TimelineService) ReopenStep(leadID, leadStepID uuid.UUID, remarks string, actor *session.Identity) (*models.LeadStep, error) {
	step, err := s.loadStep(leadID, leadStepID)
	if err != nil {
		return nil, err
	}

	switch authz.Check(actor.Role, "timeline", "reopen") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not reopen steps")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &step.Lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}
	if step.Status != models.StepStatusCompleted {
		return nil, apperr.InvalidTransition(
			fmt.Sprintf("only completed steps can be reopened; step is %s", step.Status))
	}
	if !step.Step.RoleAllowed(actor.Role) {
		return nil, apperr.Forbidden("role may not reopen this step")
	}

	err = s.db.Model(&models.LeadStep{}).
		Where("id = ?", step.ID).
		Updates(map[string]interface{}{
			"status":       models.StepStatusPending,
			"completed_by": nil,
			"completed_at": nil,
			"remarks":      "",
		}).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &step.LeadID,
		UserID:     actor.UserID,
		Action:     models.ActionStepReopen,
		EntityType: "lead_step",
		EntityID:   &step.ID,
		OldValue:   jsonValue(map[string]string{"status": models.StepStatusCompleted}),
		NewValue:   jsonValue(map[string]string{"status": models.StepStatusPending, "remarks": remarks}),
	})

	step.Status = models.StepStatusPending
	step.CompletedBy = nil
	step.CompletedAt = nil
	step.Remarks = ""
	return step, nil
}

// HaltStep freezes a step unconditionally pending manual intervention.
// Admin only; enforced here as well as at the route.
func (s *TimelineService) HaltStep(leadID, leadStepID uuid.UUID, remarks string, actor *session.Identity) (*models.LeadStep, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only admins may halt steps")
	}

	step, err := s.loadStep(leadID, leadStepID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.LeadStep{}).
		Where("id = ?", step.ID).
		Updates(map[string]interface{}{
			"status":  models.StepStatusHalted,
			"remarks": remarks,
		}).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &step.LeadID,
		UserID:     actor.UserID,
		Action:     models.ActionStepHalt,
		EntityType: "lead_step",
		EntityID:   &step.ID,
		OldValue:   jsonValue(map[string]string{"status": step.Status}),
		NewValue:   jsonValue(map[string]string{"status": models.StepStatusHalted, "remarks": remarks}),
	})

	step.Status = models.StepStatusHalted
	step.Remarks = remarks
	return step, nil
}

// MoveBackward is the bulk admin rollback: the target step goes back to
// pending, every later step to upcoming, earlier steps stay untouched.
// One audit entry per affected step.
func (s *TimelineService) MoveBackward(leadID uuid.UUID, targetOrder int, remarks string, actor *session.Identity) ([]models.LeadStep, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only admins may roll the timeline back")
	}

	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	var steps []models.LeadStep
	err := s.db.Preload("Step").
		Joins("JOIN step_master ON step_master.id = lead_steps.step_id").
		Where("lead_steps.lead_id = ?", leadID).
		Order("step_master.order_index ASC").
		Find(&steps).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var affected []models.LeadStep
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range steps {
			step := &steps[i]
			if step.Step.OrderIndex < targetOrder {
				continue
			}

			status := models.StepStatusUpcoming
			if step.Step.OrderIndex == targetOrder {
				status = models.StepStatusPending
			}
			if err := tx.Model(&models.LeadStep{}).
				Where("id = ?", step.ID).
				Updates(map[string]interface{}{
					"status":       status,
					"completed_by": nil,
					"completed_at": nil,
					"remarks":      "",
				}).Error; err != nil {
				return err
			}

			step.Status = status
			step.CompletedBy = nil
			step.CompletedAt = nil
			step.Remarks = ""
			affected = append(affected, *step)
		}
		if len(affected) == 0 {
			return apperr.NotFound(fmt.Sprintf("no step at order index %d", targetOrder))
		}
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	for i := range affected {
		s.activity.Record(models.ActivityLog{
			LeadID:     &leadID,
			UserID:     actor.UserID,
			Action:     models.ActionStepRollback,
			EntityType: "lead_step",
			EntityID:   &affected[i].ID,
			NewValue: jsonValue(map[string]interface{}{
				"status":  affected[i].Status,
				"order":   affected[i].Step.OrderIndex,
				"remarks": remarks,
			}),
		})
	}
	return affected, nil
}

// nextStep finds the lead step immediately following orderIndex.
func nextStep(tx *gorm.DB, leadID uuid.UUID, orderIndex int) (*models.LeadStep, error) {
	var next models.LeadStep
	err := tx.Joins("JOIN step_master ON step_master.id = lead_steps.step_id").
		Where("lead_steps.lead_id = ? AND step_master.order_index > ?", leadID, orderIndex).
		Order("step_master.order_index ASC").
		First(&next).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &next, nil
}
