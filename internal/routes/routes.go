package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/handlers"
	"github.com/solarflowhq/solarflow-backend/internal/middleware"
	"github.com/solarflowhq/solarflow-backend/internal/models"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	leadHandler *handlers.LeadHandler,
	timelineHandler *handlers.TimelineHandler,
	documentHandler *handlers.DocumentHandler,
	stepHandler *handlers.StepHandler,
	activityHandler *handlers.ActivityHandler,
	userHandler *handlers.UserHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth is public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required) - applied per route so the public
	// auth endpoints above stay reachable.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Get("/notifications", middleware.JWTProtected(cfg), notificationHandler.List)
	api.Post("/notifications/:id/read", middleware.JWTProtected(cfg), notificationHandler.MarkRead)

	// Leads and their timeline / documents. Role scoping beyond JWT is
	// enforced by the policy checks inside the services.
	leads := api.Group("/leads", middleware.JWTProtected(cfg))
	leads.Get("/", leadHandler.List)
	leads.Post("/", leadHandler.Create)
	leads.Get("/:id", leadHandler.Get)
	leads.Patch("/:id", leadHandler.Update)
	leads.Patch("/:id/status", leadHandler.Transition)
	leads.Post("/:id/installer", leadHandler.AssignInstaller)

	leads.Get("/:id/timeline", timelineHandler.Timeline)
	leads.Post("/:id/steps/:stepId/complete", timelineHandler.Complete)
	leads.Post("/:id/steps/:stepId/reopen", timelineHandler.Reopen)
	leads.Post("/:id/steps/:stepId/halt", timelineHandler.Halt)
	leads.Get("/:id/steps/:stepId/documents", timelineHandler.SubmissionStatus)
	leads.Post("/:id/admin/move-backward", timelineHandler.MoveBackward)

	leads.Get("/:id/documents", documentHandler.List)
	leads.Get("/:id/documents/:category", documentHandler.Get)
	leads.Post("/:id/documents/:category", documentHandler.Submit)
	leads.Delete("/:id/documents/:category", documentHandler.Delete)
	leads.Post("/:id/documents/:category/corrupt", documentHandler.MarkCorrupted)

	// Step templates: reading is open to any signed-in user, management
	// is admin only.
	steps := api.Group("/steps", middleware.JWTProtected(cfg))
	steps.Get("/", stepHandler.List)
	steps.Get("/:id/documents", documentHandler.StepRequirements)
	steps.Post("/", middleware.RoleRequired(cfg, models.RoleAdmin), stepHandler.Create)
	steps.Put("/reorder", middleware.RoleRequired(cfg, models.RoleAdmin), stepHandler.Reorder)
	steps.Patch("/:id", middleware.RoleRequired(cfg, models.RoleAdmin), stepHandler.Update)
	steps.Delete("/:id", middleware.RoleRequired(cfg, models.RoleAdmin), stepHandler.Delete)

	// Activity feed (back office only)
	api.Get("/activity", middleware.JWTProtected(cfg), middleware.RoleRequired(cfg, models.RoleAdmin, models.RoleOffice), activityHandler.List)

	// Admin user management; office staff may create agent and customer
	// accounts through the same create endpoint.
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.RoleRequired(cfg, models.RoleAdmin))
	admin.Get("/users", userHandler.List)
	admin.Patch("/users/:id", userHandler.Update)

	api.Post("/admin/users", middleware.JWTProtected(cfg), middleware.RoleRequired(cfg, models.RoleAdmin, models.RoleOffice), userHandler.Create)
}
