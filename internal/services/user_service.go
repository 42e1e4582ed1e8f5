package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/authz"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewUserService(db *gorm.DB, activity *ActivityService) *UserService {
	return &UserService{db: db, activity: activity}
}

// ProfileByID satisfies the route guard's ProfileSource.
func (s *UserService) ProfileByID(id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Internal(err)
	}
	return &profile, nil
}

func (s *UserService) List(role string, page, limit int) ([]models.Profile, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	q := s.db.Model(&models.Profile{})
	if role != "" {
		q = q.Where("role = ?", role)
	}

	var profiles []models.Profile
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return profiles, nil
}

// Create provisions a staff or customer account. Office may only create
// agent and customer accounts; admins create any role.
func (s *UserService) Create(req *dto.CreateUserRequest, actor *session.Identity) (*models.Profile, error) {
	if authz.Check(actor.Role, "users", "create") == authz.Deny {
		return nil, apperr.Forbidden("role may not create users")
	}
	if !models.ValidRole(req.Role) {
		return nil, apperr.Validation("unknown role: " + req.Role)
	}
	if actor.Role == models.RoleOffice && req.Role != models.RoleAgent && req.Role != models.RoleCustomer {
		return nil, apperr.Forbidden("office staff may only create agent and customer accounts")
	}
	if len(req.Email) == 0 || !strings.Contains(req.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}

	var existing models.Profile
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	profile := models.Profile{
		ID:       uuid.New(),
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
		Status:   models.UserActive,
		Password: string(hash),
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionCreate,
		EntityType: "profile",
		EntityID:   &profile.ID,
		NewValue:   jsonValue(map[string]string{"email": profile.Email, "role": profile.Role}),
	})
	return &profile, nil
}

// Update changes role, status, name, or phone. Admin only.
func (s *UserService) Update(userID uuid.UUID, req *dto.UpdateUserRequest, actor *session.Identity) (*models.Profile, error) {
	if authz.Check(actor.Role, "users", "manage") != authz.Allow {
		return nil, apperr.Forbidden("role may not manage users")
	}

	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", userID).Error; err != nil {
		return nil, apperr.NotFound("user not found")
	}

	old := jsonValue(map[string]string{"role": profile.Role, "status": profile.Status})
	updates := map[string]interface{}{}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return nil, apperr.Validation("unknown role: " + *req.Role)
		}
		updates["role"] = *req.Role
	}
	if req.Status != nil {
		if *req.Status != models.UserActive && *req.Status != models.UserDisabled {
			return nil, apperr.Validation("status must be active or disabled")
		}
		if profile.ID == actor.UserID && *req.Status == models.UserDisabled {
			return nil, apperr.Validation("you cannot disable your own account")
		}
		updates["status"] = *req.Status
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		return &profile, nil
	}

	if err := s.db.Model(&profile).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Record(models.ActivityLog{
		UserID:     actor.UserID,
		Action:     models.ActionUpdate,
		EntityType: "profile",
		EntityID:   &profile.ID,
		OldValue:   old,
		NewValue:   jsonValue(updates),
	})
	return &profile, nil
}
