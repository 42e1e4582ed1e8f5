package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

type LeadHandler struct {
	leads *services.LeadService
}

func NewLeadHandler(leads *services.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func (h *LeadHandler) List(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	resp, err := h.leads.List(id, c.Query("status"), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *LeadHandler) Create(c *fiber.Ctx) error {
	id, err := session.FromContext(c)
	if err != nil {
		return fail(c, apperr.Unauthorized("authentication required"))
	}

	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	lead, err := h.leads.Create(&req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (h *LeadHandler) Get(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	lead, err := h.leads.Get(leadID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) Update(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	lead, err := h.leads.Update(leadID, &req, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) Transition(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Status == "" {
		return fail(c, apperr.Validation("status is required"))
	}

	lead, err := h.leads.Transition(leadID, req.Status, req.Remarks, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) AssignInstaller(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.AssignInstallerRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.InstallerID == uuid.Nil {
		return fail(c, apperr.Validation("installer_id is required"))
	}

	lead, err := h.leads.AssignInstaller(leadID, req.InstallerID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lead)
}

func actorAndLeadID(c *fiber.Ctx) (*session.Identity, uuid.UUID, error) {
	id, err := session.FromContext(c)
	if err != nil {
		return nil, uuid.Nil, apperr.Unauthorized("authentication required")
	}
	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, uuid.Nil, apperr.Validation("malformed lead id")
	}
	return id, leadID, nil
}
