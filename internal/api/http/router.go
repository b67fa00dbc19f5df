package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/rescue-service/internal/api/http/handlers"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Missions       *handlers.MissionsHandler
	Profile        *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/email/verify", cfg.Users.VerifyEmail)
	authGroup.Post("/email/resend", cfg.Users.ResendVerification)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	// Residence certificates are uploaded before the account exists.
	app.Post("/uploads/documents", cfg.Profile.UploadDocument)

	profile := app.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	profile.Get("/", cfg.Profile.Get)
	profile.Patch("/", cfg.Profile.Update)
	profile.Post("/photo", cfg.Profile.UploadPhoto)
	profile.Post("/location", cfg.Profile.SyncLocation)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	requests.Get("/pending", cfg.Requests.ListPending)
	requests.Get("/stream", cfg.Requests.Stream)

	// Only requesters may ask for help.
	asking := requests.Group("", auth.RequireRequester())
	asking.Post("/", cfg.Requests.Create)
	asking.Post("/arm", cfg.Requests.Arm)
	asking.Post("/arm/:id/cancel", cfg.Requests.CancelArm)

	missions := app.Group("/missions", cfg.AuthMiddleware.Handle, auth.RequireRescuer())
	missions.Get("/active", cfg.Missions.Active)
	missions.Post("/:requestID/accept", cfg.Missions.Accept)
	missions.Post("/:requestID/cancel", cfg.Missions.Cancel)
	missions.Post("/:requestID/complete", cfg.Missions.Complete)
	missions.Post("/:requestID/stats/retry", cfg.Missions.RetryStats)
}
