package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/", cfg.Auth.Login)
	authGroup.Post("/registration", cfg.Auth.Register)
	authGroup.Get("/verify-email/:token", cfg.Auth.VerifyEmail)
	authGroup.Get("/refresh", cfg.Auth.Refresh)

	userGroup := app.Group("/user")
	userGroup.Get("/id/:id", cfg.Users.GetByID)
	userGroup.Get("/username/:username", cfg.Users.GetByUsername)

	protected := userGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/change-password-request", cfg.Users.RequestPasswordChange)
	protected.Patch("/change-password/:token", cfg.Users.ChangePassword)
}
