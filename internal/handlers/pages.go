package handlers

import (
	"conseilweb/views/pages"

	"github.com/gofiber/fiber/v2"
)

// Page renders one content route.
func Page(p pages.Page, site pages.Site) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return pages.Render(p, site).Render(c.UserContext(), c.Response().BodyWriter())
	}
}

// NotFound is the catch-all handler registered after every route.
func NotFound(site pages.Site) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return RenderNotFound(c, site)
	}
}

// RenderNotFound writes the 404 page. It is shared with the app error
// handler so framework-generated 404s look the same.
func RenderNotFound(c *fiber.Ctx, site pages.Site) error {
	c.Status(fiber.StatusNotFound)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return pages.NotFound(site).Render(c.UserContext(), c.Response().BodyWriter())
}
