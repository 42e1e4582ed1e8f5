package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type StepHandler struct {
	steps *services.StepService
}

func NewStepHandler(steps *services.StepService) *StepHandler {
	return &StepHandler{steps: steps}
}

func (h *StepHandler) List(c *fiber.Ctx) error {
	steps, err := h.steps.List()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"steps": steps})
}

func (h *StepHandler) Create(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	var req dto.CreateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	step, err := h.steps.Create(&req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(step)
}

func (h *StepHandler) Update(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}
	stepID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Validation("malformed step id"))
	}

	var req dto.UpdateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	step, err := h.steps.Update(stepID, &req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(step)
}

func (h *StepHandler) Delete(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}
	stepID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Validation("malformed step id"))
	}

	if err := h.steps.Delete(stepID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *StepHandler) Reorder(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	var req dto.ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.steps.Reorder(&req, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
