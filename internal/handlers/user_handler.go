package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	profiles, err := h.users.List(c.Query("role"), c.QueryInt("page", 1), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": profiles})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	profile, err := h.users.Create(&req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Validation("malformed user id"))
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	profile, err := h.users.Update(userID, &req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}
