package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/devhub/devhub-api/internal/api/http/handlers"
	"github.com/devhub/devhub-api/internal/auth"
	"github.com/devhub/devhub-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	ProjectUsers   *handlers.ProjectUsersHandler
	AccessGate     *auth.AccessGate
	Metrics        *observability.Metrics
	DebugEndpoints bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Index)
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	// legacy clients call the credential endpoints without the /auth prefix
	registerCredentialRoutes(app, cfg.Auth)
	authGroup := app.Group("/auth")
	registerCredentialRoutes(authGroup, cfg.Auth)

	if cfg.DebugEndpoints {
		authGroup.Get("/encrypt_test/:plaintext", cfg.Auth.EncryptTest)
		authGroup.Post("/decrypt_test", cfg.Auth.DecryptTest)
	}

	protectedAuth := authGroup.Group("", cfg.AccessGate.Handle)
	protectedAuth.Get("/me", cfg.Auth.Me)
	protectedAuth.Post("/sweep", cfg.Auth.Sweep)

	users := app.Group("/project_users")
	users.Post("/", cfg.ProjectUsers.Create)

	protectedUsers := users.Group("", cfg.AccessGate.Handle)
	protectedUsers.Get("/", cfg.ProjectUsers.List)
	protectedUsers.Get("/:username", cfg.ProjectUsers.Get)
	protectedUsers.Delete("/:username", cfg.ProjectUsers.Delete)
	protectedUsers.Post("/:username/activate", cfg.ProjectUsers.Activate)
	protectedUsers.Post("/:username/deactivate", cfg.ProjectUsers.Deactivate)
}

func registerCredentialRoutes(router fiber.Router, h *handlers.AuthHandler) {
	router.Get("/public_key", h.PublicKey)
	router.Post("/login", h.Login)
	router.Post("/validate_token", h.ValidateToken)
	router.Post("/logout", h.Logout)
}
