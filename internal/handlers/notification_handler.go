package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	notifications, err := h.notifications.ListForUser(id.UserID, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Validation("malformed notification id"))
	}

	if err := h.notifications.MarkRead(notifID, id.UserID); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
