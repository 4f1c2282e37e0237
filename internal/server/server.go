package server

import (
	"context"

	"well-bot-be/internal/bootstrap"
	"well-bot-be/internal/config"
	"well-bot-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Trace-Id",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Response-Time",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	c.HealthController.RegisterRoutes(app)

	api := app.Group("/api")
	auth := serverutils.CardAuthMiddleware(cfg.Auth.Mode, cfg.Auth.StaticKey, cfg.Auth.JwtSecret)

	c.TurnController.RegisterRoutes(api, auth)
	c.ToolController.RegisterRoutes(api, auth)
	c.SessionController.RegisterRoutes(api, auth)
	c.ConversationController.RegisterRoutes(api, auth)
	c.DiagnosticsController.RegisterRoutes(api, auth)

	c.SessionSocketHandler.RegisterRoutes(api)
}
