package handlers

import (
	"time"

	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// Health reports liveness along with the size of the loaded policy tables,
// which makes a mis-deployed policy file visible without reading logs.
func Health(p *policy.Policy, started time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		type healthJSON struct {
			Status        string  `json:"status"`
			Redirects     int     `json:"redirects"`
			HeaderRules   int     `json:"header_rules"`
			ImageHosts    int     `json:"image_hosts"`
			UptimeSeconds float64 `json:"uptime_seconds"`
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(healthJSON{
			Status:        "ok",
			Redirects:     len(p.RedirectRules()),
			HeaderRules:   len(p.HeaderRules()),
			ImageHosts:    len(p.Assets().AllowedHosts),
			UptimeSeconds: time.Since(started).Seconds(),
		})
	}
}
