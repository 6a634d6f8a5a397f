// Package server assembles the fiber application: middleware order, routes
// and the error handler.
package server

import (
	"errors"
	"strings"
	"time"

	"conseilweb/internal/config"
	"conseilweb/internal/handlers"
	applog "conseilweb/internal/log"
	"conseilweb/internal/metrics"
	"conseilweb/internal/policy"
	"conseilweb/views/pages"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Options overrides collaborators in tests. The zero value is production.
type Options struct {
	Fetcher handlers.Fetcher
	Started time.Time
}

// New builds the application for cfg and pol. The policy header middleware
// runs ahead of everything that can answer a request, and the error handler
// re-applies it, so every response carries the policy headers.
func New(cfg *config.Config, pol *policy.Policy, opts Options) *fiber.App {
	site := pages.Site{URL: cfg.SiteURL, GAID: cfg.GAID, GTMID: cfg.GTMID}
	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			policy.SetHeaders(c, pol)
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code == fiber.StatusNotFound {
				return handlers.RenderNotFound(c, site)
			}
			if code >= fiber.StatusInternalServerError {
				applog.FromCtx(c).Error().Err(err).Msg("request failed")
				return c.Status(code).SendString(fiber.ErrInternalServerError.Message)
			}
			return c.Status(code).SendString(err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(applog.Middleware())
	app.Use(policy.HeadersMiddleware(pol))
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
	}
	if cfg.RateLimitPerMin > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMin,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/metrics"
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}))
	}
	app.Use(policy.RedirectMiddleware(pol))

	for _, p := range pages.All {
		app.Get(p.Path, handlers.Page(p, site))
	}

	app.Static("/downloads", cfg.DownloadsDir)
	app.Static("/static", cfg.StaticDir)
	app.Get("/_image", handlers.Image(pol, cfg.StaticDir, opts.Fetcher))

	app.Get("/healthz", handlers.Health(pol, opts.Started))
	if cfg.MetricsEnabled {
		app.Get("/metrics", metrics.Handler())
	}
	app.Get("/sitemap.xml", handlers.Sitemap(cfg.SiteURL))
	app.Get("/robots.txt", handlers.Robots(cfg.SiteURL))

	app.Use(handlers.NotFound(site))

	return app
}

// Addr returns the listen address for cfg.
func Addr(cfg *config.Config) string {
	if strings.Contains(cfg.Port, ":") {
		return cfg.Port
	}
	return ":" + cfg.Port
}
