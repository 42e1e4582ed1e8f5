package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
)

// fail maps any error to the wire taxonomy. Unclassified errors become a
// generic 500; their detail is logged, never sent to the client.
func fail(c *fiber.Ctx, err error) error {
	ae := apperr.From(err)
	if ae.Status >= 500 {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", ae.Error(),
		)
	}
	return c.Status(ae.Status).JSON(dto.ErrorResponse{
		Error: dto.ErrorBody{Code: string(ae.Code), Message: ae.Message},
	})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, apperr.Validation("invalid request body"))
}
