package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/authz"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"gorm.io/gorm"
)

// leadTransitions is the fixed transition table. completed and cancelled
// are terminal. interested -> processing is deliberately absent: that edge
// only fires automatically when all mandatory documents turn valid.
var leadTransitions = map[string][]string{
	models.LeadStatusLead:       {models.LeadStatusInterested, models.LeadStatusCancelled},
	models.LeadStatusInterested: {models.LeadStatusCancelled},
	models.LeadStatusProcessing: {models.LeadStatusCompleted, models.LeadStatusCancelled},
	models.LeadStatusCompleted:  {},
	models.LeadStatusCancelled:  {},
}

// CanTransition reports whether the fixed table allows from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range leadTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

var phonePattern = regexp.MustCompile(`^[0-9+\-\s]{7,15}$`)

type LeadService struct {
	db       *gorm.DB
	timeline *TimelineService
	activity *ActivityService
	notify   *NotificationService
}

func NewLeadService(db *gorm.DB, timeline *TimelineService, activity *ActivityService, notify *NotificationService) *LeadService {
	return &LeadService{db: db, timeline: timeline, activity: activity, notify: notify}
}

func (s *LeadService) Create(req *dto.CreateLeadRequest, actor *session.Identity) (*models.Lead, error) {
	if authz.Check(actor.Role, "leads", "create") == authz.Deny {
		return nil, apperr.Forbidden("role may not create leads")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperr.Validation("customer_name is required")
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, apperr.Validation("phone must be 7-15 digits")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, apperr.Validation("address is required")
	}

	source := req.Source
	if source == "" {
		source = actor.Role
	}
	switch source {
	case models.LeadSourceAgent, models.LeadSourceOffice, models.LeadSourceCustomer, models.LeadSourceSelf:
	default:
		return nil, apperr.Validation("unknown lead source: " + source)
	}

	lead := models.Lead{
		ID:           uuid.New(),
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Source:       source,
		Status:       models.LeadStatusLead,
		Remarks:      req.Remarks,
		CreatedBy:    actor.UserID,
	}
	if err := s.db.Create(&lead).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionCreate,
		EntityType: "lead",
		EntityID:   &lead.ID,
		NewValue:   jsonValue(lead),
	})
	return &lead, nil
}

func (s *LeadService) Get(leadID uuid.UUID, actor *session.Identity) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	switch authz.Check(actor.Role, "leads", "read") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not view leads")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}
	return &lead, nil
}

// List returns leads visible to the actor: admin and office see all,
// agents their own, installers assigned ones, customers their engagement.
func (s *LeadService) List(actor *session.Identity, status string, page, limit int) (*dto.LeadListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.db.Model(&models.Lead{})
	switch authz.Check(actor.Role, "leads", "list") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not list leads")
	case authz.AllowOwner:
		switch actor.Role {
		case models.RoleAgent:
			q = q.Where("created_by = ?", actor.UserID)
		case models.RoleInstaller:
			q = q.Where("installer_id = ?", actor.UserID)
		case models.RoleCustomer:
			q = q.Where("customer_account_id = ?", actor.UserID)
		}
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var leads []models.Lead
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&leads).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &dto.LeadListResponse{
		Leads: leads,
		Pagination: dto.Pagination{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *LeadService) Update(leadID uuid.UUID, req *dto.UpdateLeadRequest, actor *session.Identity) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	switch authz.Check(actor.Role, "leads", "update") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not update leads")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &lead, actor.UserID) {
			return nil, apperr.Forbidden("not your lead")
		}
	}

	old := jsonValue(lead)
	updates := map[string]interface{}{}
	if req.CustomerName != nil {
		updates["customer_name"] = *req.CustomerName
	}
	if req.Phone != nil {
		if !phonePattern.MatchString(*req.Phone) {
			return nil, apperr.Validation("phone must be 7-15 digits")
		}
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Remarks != nil {
		updates["remarks"] = *req.Remarks
	}
	if len(updates) == 0 {
		return &lead, nil
	}

	if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "lead",
		EntityID:   &lead.ID,
		OldValue:   old,
		NewValue:   jsonValue(lead),
	})
	return &lead, nil
}

// Transition applies the fixed status table. The interested -> processing
// edge is rejected here with a pointer to the automatic path.
func (s *LeadService) Transition(leadID uuid.UUID, requested, remarks string, actor *session.Identity) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	switch authz.Check(actor.Role, "leads", "transition") {
	case authz.Deny:
		return nil, apperr.Forbidden("role may not change lead status")
	case authz.AllowOwner:
		if !authz.OwnsLead(actor.Role, &lead, actor.UserID) {
			return nil, apperr.Forbidden("agents may only update leads they created")
		}
	}

	if lead.Status == models.LeadStatusInterested && requested == models.LeadStatusProcessing {
		return nil, apperr.InvalidTransition(
			"leads move to processing automatically once all mandatory documents are valid; it cannot be requested directly")
	}
	if !CanTransition(lead.Status, requested) {
		return nil, apperr.InvalidTransition(
			fmt.Sprintf("cannot move lead from %s to %s", lead.Status, requested))
	}

	oldStatus := lead.Status
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&lead).Update("status", requested).Error; err != nil {
			return err
		}
		// Entering the pipeline instantiates the timeline.
		if requested == models.LeadStatusInterested {
			return s.timeline.instantiate(tx, lead.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionStatusChange,
		EntityType: "lead",
		EntityID:   &lead.ID,
		OldValue:   jsonValue(map[string]string{"status": oldStatus}),
		NewValue:   jsonValue(map[string]string{"status": requested, "remarks": remarks}),
	})
	if lead.CustomerAccountID != nil {
		s.notify.Notify(*lead.CustomerAccountID, &lead.ID,
			"Lead status updated",
			fmt.Sprintf("Your lead is now %s", requested))
	}

	lead.Status = requested
	return &lead, nil
}

// AssignInstaller sets the installer for a lead; some timeline steps
// require one before they can be completed.
func (s *LeadService) AssignInstaller(leadID, installerID uuid.UUID, actor *session.Identity) (*models.Lead, error) {
	if authz.Check(actor.Role, "leads", "assign_installer") != authz.Allow {
		return nil, apperr.Forbidden("role may not assign installers")
	}

	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, apperr.NotFound("lead not found")
	}

	var installer models.Profile
	if err := s.db.First(&installer, "id = ?", installerID).Error; err != nil {
		return nil, apperr.NotFound("installer not found")
	}
	if installer.Role != models.RoleInstaller {
		return nil, apperr.Validation("assignee is not an installer")
	}
	if installer.Status == models.UserDisabled {
		return nil, apperr.Validation("installer account is disabled")
	}

	if err := s.db.Model(&lead).Update("installer_id", installerID).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		LeadID:     &lead.ID,
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "lead",
		EntityID:   &lead.ID,
		NewValue:   jsonValue(map[string]string{"installer_id": installerID.String()}),
	})

	s.notify.Notify(installerID, &lead.ID,
		"New installation assigned",
		fmt.Sprintf("You have been assigned to %s", lead.CustomerName))

	lead.InstallerID = &installerID
	return &lead, nil
}
