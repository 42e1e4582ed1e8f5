package dto

import "github.com/solarflowhq/solarflow-backend/internal/models"

type ActivityListResponse struct {
	Entries []models.ActivityLog `json:"entries"`
	Pagination
}
