package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/session"
)

// RoleRequired restricts a route group to the given roles. A matching
// X-Admin-Token header bypasses the check for operator tooling.
func RoleRequired(cfg *config.Config, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		id, err := session.FromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: dto.ErrorBody{Code: "unauthorized", Message: "authentication required"},
			})
		}

		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: dto.ErrorBody{Code: "forbidden", Message: "insufficient role"},
		})
	}
}
