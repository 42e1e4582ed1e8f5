package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/database"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/handlers"
	"github.com/solarflowhq/solarflow-backend/internal/logging"
	"github.com/solarflowhq/solarflow-backend/internal/middleware"
	"github.com/solarflowhq/solarflow-backend/internal/routes"
	"github.com/solarflowhq/solarflow-backend/internal/services"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"github.com/solarflowhq/solarflow-backend/internal/storage"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.SupabaseURL == "" {
		slog.Error("SUPABASE_URL environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Session bridge and storage
	bridge := session.NewBridge(cfg)
	store := storage.NewClient(cfg)

	// Services
	activityService := services.NewActivityService(database.DB)
	notificationService := services.NewNotificationService(database.DB)
	documentService := services.NewDocumentService(database.DB, store, cfg, activityService, notificationService)
	timelineService := services.NewTimelineService(database.DB, documentService, activityService, notificationService)
	leadService := services.NewLeadService(database.DB, timelineService, activityService, notificationService)
	authService := services.NewAuthService(database.DB, cfg)
	userService := services.NewUserService(database.DB, activityService)
	stepService := services.NewStepService(database.DB, activityService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, bridge)
	healthHandler := handlers.NewHealthHandler()
	leadHandler := handlers.NewLeadHandler(leadService)
	timelineHandler := handlers.NewTimelineHandler(timelineService, documentService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	stepHandler := handlers.NewStepHandler(stepService)
	activityHandler := handlers.NewActivityHandler(activityService)
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    12 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.RouteGuard(bridge, userService))

	// Routes
	routes.Setup(app, cfg, authHandler, healthHandler, leadHandler, timelineHandler, documentHandler, stepHandler, activityHandler, userHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	errCode := "internal"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
		switch code {
		case fiber.StatusNotFound:
			errCode = "not_found"
		case fiber.StatusMethodNotAllowed:
			errCode = "validation"
		case fiber.StatusTooManyRequests:
			errCode = "rate_limited"
		case fiber.StatusRequestEntityTooLarge:
			errCode = "validation"
		}
	}

	// Never expose server error details to clients.
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "internal server error"
		errCode = "internal"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: dto.ErrorBody{Code: errCode, Message: message}})
}
