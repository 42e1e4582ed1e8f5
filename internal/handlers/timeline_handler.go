package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type TimelineHandler struct {
	timeline *services.TimelineService
	docs     *services.DocumentService
}

func NewTimelineHandler(timeline *services.TimelineService, docs *services.DocumentService) *TimelineHandler {
	return &TimelineHandler{timeline: timeline, docs: docs}
}

func (h *TimelineHandler) Timeline(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	steps, err := h.timeline.Timeline(leadID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"steps": steps})
}

func (h *TimelineHandler) Complete(c *fiber.Ctx) error {
	id, leadID, stepID, err := actorAndStepID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.CompleteStepRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badBody(c)
	}

	step, err := h.timeline.CompleteStep(leadID, stepID, req.Remarks, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(step)
}

func (h *TimelineHandler) Reopen(c *fiber.Ctx) error {
	id, leadID, stepID, err := actorAndStepID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.ReopenStepRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badBody(c)
	}

	step, err := h.timeline.ReopenStep(leadID, stepID, req.Remarks, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(step)
}

func (h *TimelineHandler) Halt(c *fiber.Ctx) error {
	id, leadID, stepID, err := actorAndStepID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.HaltStepRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badBody(c)
	}

	step, err := h.timeline.HaltStep(leadID, stepID, req.Remarks, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(step)
}

func (h *TimelineHandler) MoveBackward(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.MoveBackwardRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.TargetOrderIndex < 1 {
		return fail(c, apperr.Validation("target_order_index must be positive"))
	}

	steps, err := h.timeline.MoveBackward(leadID, req.TargetOrderIndex, req.Remarks, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"steps": steps})
}

// SubmissionStatus reports which of a step's required documents the lead
// has submitted.
func (h *TimelineHandler) SubmissionStatus(c *fiber.Ctx) error {
	_, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}
	stepID, err := uuid.Parse(c.Params("stepId"))
	if err != nil {
		return fail(c, apperr.Validation("malformed step id"))
	}

	statuses, err := h.docs.SubmissionStatus(leadID, stepID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"documents": statuses})
}

func actorAndStepID(c *fiber.Ctx) (*session.Identity, uuid.UUID, uuid.UUID, error) {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	stepID, err := uuid.Parse(c.Params("stepId"))
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, apperr.Validation("malformed step id")
	}
	return id, leadID, stepID, nil
}
