package services

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify inserts an in-app notification. Best-effort like the audit log.
func (s *NotificationService) Notify(userID uuid.UUID, leadID *uuid.UUID, title, message string) {
	n := models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		LeadID:  leadID,
		Title:   title,
		Message: message,
	}
	if err := s.db.Create(&n).Error; err != nil {
		slog.Error("notification insert failed", "user_id", userID.String(), "error", err)
	}
}

func (s *NotificationService) ListForUser(userID uuid.UUID, page, limit int) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(id, userID uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}
