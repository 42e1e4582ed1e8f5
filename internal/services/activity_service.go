package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityService appends to the audit trail. Writes are fire-and-forget:
// an audit outage must never fail the business operation that caused it.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record appends one entry. Insert failures are logged, never returned.
func (s *ActivityService) Record(entry models.ActivityLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.db.Create(&entry).Error; err != nil {
		slog.Error("activity log append failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"user_id", entry.UserID.String(),
			"error", err,
		)
	}
}

// ActivityFilter narrows List; zero values mean no filter.
type ActivityFilter struct {
	LeadID *uuid.UUID
	UserID *uuid.UUID
	Action string // substring match
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// List returns audit entries for display, newest first.
func (s *ActivityService) List(f ActivityFilter) (*dto.ActivityListResponse, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	q := s.db.Model(&models.ActivityLog{})
	if f.LeadID != nil {
		q = q.Where("lead_id = ?", *f.LeadID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action LIKE ?", "%"+f.Action+"%")
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var entries []models.ActivityLog
	if err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&entries).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return &dto.ActivityListResponse{
		Entries: entries,
		Pagination: dto.Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			TotalCount: total,
			TotalPages: totalPages,
		},
	}, nil
}

// jsonValue marshals v for the old_value/new_value audit columns.
func jsonValue(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
