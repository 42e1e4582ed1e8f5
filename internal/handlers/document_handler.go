package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/services"
)

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) List(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	docs, err := h.docs.List(c.Context(), leadID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"documents": docs})
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}
	category := c.Params("category")

	docs, err := h.docs.List(c.Context(), leadID, id)
	if err != nil {
		return fail(c, err)
	}
	for i := range docs {
		if docs[i].DocumentCategory == category {
			return c.JSON(docs[i])
		}
	}
	return fail(c, apperr.NotFound("no document for category "+category))
}

// Submit accepts either a multipart file upload (field "file") or a JSON
// form payload for the category.
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}
	category := c.Params("category")

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fail(c, apperr.Validation("unreadable file upload"))
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return fail(c, apperr.Validation("unreadable file upload"))
		}

		doc, err := h.docs.SubmitFile(c.Context(), leadID, category, fh.Filename, fh.Header.Get("Content-Type"), data, id)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}

	var req dto.SubmitFormRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	doc, err := h.docs.SubmitForm(c.Context(), leadID, category, req.Data, id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.docs.Delete(c.Context(), leadID, c.Params("category"), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *DocumentHandler) MarkCorrupted(c *fiber.Ctx) error {
	id, leadID, err := actorAndLeadID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.docs.MarkCorrupted(leadID, c.Params("category"), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// StepRequirements lists the document categories a template step demands.
func (h *DocumentHandler) StepRequirements(c *fiber.Ctx) error {
	stepID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Validation("malformed step id"))
	}

	reqs, err := h.docs.RequiredDocuments(stepID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"documents": reqs})
}
