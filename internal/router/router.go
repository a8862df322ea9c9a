package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skillpulse/skillpulse-api/internal/config"
	"github.com/skillpulse/skillpulse-api/internal/handler"
	"github.com/skillpulse/skillpulse-api/internal/middleware"
	"github.com/skillpulse/skillpulse-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TaskHandler       *handler.TaskHandler
	SubmissionHandler *handler.SubmissionHandler
	RotationHandler   *handler.RotationHandler
	ScoringHandler    *handler.ScoringHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Task catalog
	if deps.TaskHandler != nil {
		tasks := app.Group("/api/v2/tasks", jwtMiddleware)
		deps.TaskHandler.Register(tasks)
	}

	// Submissions (integrity check + scoring). Submitting runs a corpus scan
	// per request, so the group is rate limited per user.
	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", jwtMiddleware, middleware.RateLimit("submissions", 30, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	// Scoring configuration & fairness
	if deps.ScoringHandler != nil {
		scoring := app.Group("/api/v2/scoring", jwtMiddleware)
		deps.ScoringHandler.Register(scoring)
	}

	// Rotation administration
	if deps.RotationHandler != nil {
		rotation := app.Group("/api/admin/rotation", jwtMiddleware, middleware.RequireRole("admin"))
		deps.RotationHandler.Register(rotation)
	}
}
