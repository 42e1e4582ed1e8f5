package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/services"
)

type ActivityHandler struct {
	activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) List(c *fiber.Ctx) error {
	f := services.ActivityFilter{
		Action: c.Query("action"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}
	if leadID, err := uuid.Parse(c.Query("lead_id")); err == nil {
		f.LeadID = &leadID
	}
	if userID, err := uuid.Parse(c.Query("user_id")); err == nil {
		f.UserID = &userID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		f.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		f.To = &to
	}

	resp, err := h.activity.List(f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}
