package server

import (
	"context"
	"net"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"second-brain-client/internal/bootstrap"
	"second-brain-client/internal/config"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/pkg/serverutils"
)

// multipart framing on top of the largest accepted file
const bodyLimitSlack = 1024 * 1024

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.DevContainer
	logger    logger.ILogger
}

func New(cfg *config.Config, container *bootstrap.DevContainer, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             int(cfg.Upload.MaxBytes) + bodyLimitSlack,
		ErrorHandler:          serverutils.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.DevServer.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	if cfg.App.OtelEnabled {
		app.Use(otelfiber.Middleware())
	}

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
		logger:    log,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("Server", "Dev backend listening", map[string]interface{}{
		"url": "http://localhost:" + s.cfg.DevServer.Port,
	})
	return s.app.Listen(":" + s.cfg.DevServer.Port)
}

// Serve runs on an existing listener; tests bind to an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.DevContainer) {
	c.StatusController.RegisterRoutes(app)
	c.AuthController.RegisterRoutes(app)
	c.ChatController.RegisterRoutes(app)
	c.MemoryController.RegisterRoutes(app)
	c.DocumentController.RegisterRoutes(app)
}
