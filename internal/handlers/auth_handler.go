package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type AuthHandler struct {
	authService *services.AuthService
	bridge      *session.Bridge
}

func NewAuthHandler(authService *services.AuthService, bridge *session.Bridge) *AuthHandler {
	return &AuthHandler{authService: authService, bridge: bridge}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.authService.Logout(&req); err != nil {
		return fail(c, err)
	}

	// Clearing the secondary session must never block logout.
	if id, err := session.FromContext(c); err == nil {
		h.bridge.Clear(c, id)
	}

	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	profile, err := h.authService.Profile(id.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.UserResponse{
		ID:     profile.ID,
		Email:  profile.Email,
		Name:   profile.Name,
		Role:   profile.Role,
		Status: profile.Status,
	})
}
