package server

import (
	"log"
	"time"

	"tarot-oracle-be/internal/bootstrap"
	"tarot-oracle-be/internal/config"
	"tarot-oracle-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api", newLimiter(c, "api:", cfg.RateLimit.API, cfg.RateLimit.Window))
	chatLimiter := newLimiter(c, "chat:", cfg.RateLimit.Chat, cfg.RateLimit.Window)

	c.SystemController.RegisterRoutes(app, api)
	c.OracleController.RegisterRoutes(api, serverutils.OptionalJwtMiddleware(cfg.Keys.JwtSecret), chatLimiter)
}

func newLimiter(c *bootstrap.Container, prefix string, max int, window time.Duration) fiber.Handler {
	lcfg := limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(serverutils.ErrorResponse(fiber.StatusTooManyRequests, "Demasiadas solicitudes, intenta más tarde."))
		},
	}
	if c.Redis != nil {
		lcfg.Storage = serverutils.NewRedisStorage(c.Redis, "limiter:"+prefix)
	}
	return limiter.New(lcfg)
}
