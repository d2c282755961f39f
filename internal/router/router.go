package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/modu-camp/quizdeck-api/internal/config"
	"github.com/modu-camp/quizdeck-api/internal/handler"
	"github.com/modu-camp/quizdeck-api/internal/middleware"
	"github.com/modu-camp/quizdeck-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QuestionHandler   *handler.QuestionHandler
	DeploymentHandler *handler.DeploymentHandler
	SubmissionHandler *handler.SubmissionHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Question and
// deployment lifecycle routes require the admin role; entering a quiz and
// submitting answers only require an authenticated student.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	api.Use(jwtMiddleware)

	adminOnly := middleware.RequireRole("admin", "manager")

	if deps.QuestionHandler != nil {
		deps.QuestionHandler.Register(api, adminOnly)
	}

	if deps.DeploymentHandler != nil {
		deps.DeploymentHandler.RegisterAdmin(api, adminOnly)

		// Access code entry is rate limited per student to slow down code
		// guessing.
		deps.DeploymentHandler.RegisterStudent(api, middleware.RateLimit("deployment_access", 10, time.Minute))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterAdmin(api, adminOnly)
		deps.SubmissionHandler.RegisterStudent(api)
	}
}
