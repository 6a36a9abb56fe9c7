package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type ISystemController interface {
	RegisterRoutes(app fiber.Router, api fiber.Router)
	Health(ctx *fiber.Ctx) error
	Ping(ctx *fiber.Ctx) error
	Version(ctx *fiber.Ctx) error
}

type VersionInfo struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Features []string `json:"features"`
}

type systemController struct {
	environment string
	version     VersionInfo
	startedAt   time.Time
	now         func() time.Time
}

func NewSystemController(environment string, version VersionInfo) ISystemController {
	return &systemController{
		environment: environment,
		version:     version,
		startedAt:   time.Now(),
		now:         time.Now,
	}
}

func (c *systemController) RegisterRoutes(app fiber.Router, api fiber.Router) {
	app.Get("/health", c.Health)
	app.Get("/ping", c.Ping)
	api.Get("/version", c.Version)
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	now := c.now()
	return ctx.JSON(fiber.Map{
		"status":      "ok",
		"timestamp":   now.UTC().Format(time.RFC3339),
		"uptime":      now.Sub(c.startedAt).Seconds(),
		"environment": c.environment,
	})
}

// Ping is a cheap warm-up probe.
func (c *systemController) Ping(ctx *fiber.Ctx) error {
	now := c.now()
	return ctx.JSON(fiber.Map{
		"ok":        true,
		"time":      now.UnixMilli(),
		"message":   "El oráculo está despierto",
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

func (c *systemController) Version(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version":   c.version.Version,
		"commit":    c.version.Commit,
		"features":  c.version.Features,
		"timestamp": c.now().UTC().Format(time.RFC3339),
	})
}
