// Package api assembles the fiber application: middleware, REST routes and
// the WebSocket endpoint.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/llm-duel/backend/internal/api/handlers"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/middleware/ratelimit"
	"github.com/llm-duel/backend/internal/middleware/security"
	"github.com/llm-duel/backend/internal/middleware/validation"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/config"
	"github.com/llm-duel/backend/pkg/logger"
)

type Options struct {
	Config  *config.Config
	Store   *session.Store
	Limiter *ratelimit.RateLimiter
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

func New(opts Options) *fiber.App {
	cfg := opts.Config

	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		// Client IPs, and so rate-limit keys, come from ProxyHeader only
		// when the request arrives from a trusted proxy.
		ProxyHeader:             cfg.Server.ProxyHeader,
		EnableTrustedProxyCheck: len(cfg.Server.TrustedProxies) > 0,
		TrustedProxies:          cfg.Server.TrustedProxies,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware()
	}
	validationLogger := logger.Named("validation")
	promptBody := validation.Middleware(validation.Config{
		MaxPromptLength: cfg.Validation.MaxPromptLength,
		RequirePrompt:   true,
		Logger:          validationLogger,
	})
	optionalPromptBody := validation.Middleware(validation.Config{
		MaxPromptLength: cfg.Validation.MaxPromptLength,
		Logger:          validationLogger,
	})

	sessionHandler := handlers.NewSessionHandler(opts.Store)
	compareHandler := handlers.NewCompareHandler(opts.Store)
	var wsLimiter handlers.Limiter
	if opts.Limiter != nil {
		wsLimiter = opts.Limiter
	}
	wsHandler := handlers.NewWebSocketHandler(opts.Store, wsLimiter, cfg.Validation.MaxPromptLength)

	v1 := app.Group("/api/v1")

	v1.Post("/sessions", sessionHandler.Create)
	v1.Get("/sessions/:id", sessionHandler.Get)
	v1.Delete("/sessions/:id", sessionHandler.Delete)
	v1.Put("/sessions/:id/prompt", promptBody, sessionHandler.SetPrompt)
	v1.Put("/sessions/:id/config/:slot", sessionHandler.UpdateConfig)
	v1.Post("/sessions/:id/compare", limit, optionalPromptBody, compareHandler.HandleCompare)
	v1.Get("/sessions/:id/history", sessionHandler.History)
	v1.Post("/sessions/:id/history/:timestamp/select", sessionHandler.Select)
	v1.Delete("/sessions/:id/history", sessionHandler.ClearHistory)

	v1.Get("/personas", handlers.Personas)
	v1.Get("/quick-prompts", handlers.QuickPrompts)

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	v1.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ready",
			"sessions": opts.Store.Len(),
		})
	})

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, metrics.MetricsHandler())
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(handlers.ClientIPKey, c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(wsHandler.HandleConnection))

	return app
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
