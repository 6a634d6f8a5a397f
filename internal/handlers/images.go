package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	applog "conseilweb/internal/log"
	"conseilweb/internal/metrics"
	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
)

// Fetcher loads a remote image into the response.
type Fetcher func(c *fiber.Ctx, addr string) error

// ProxyFetcher forwards the request to addr and copies the upstream response.
func ProxyFetcher(c *fiber.Ctx, addr string) error {
	return proxy.Do(c, addr)
}

const imageCacheControl = "public, max-age=60"

// Image serves the _image endpoint. Site-local images are answered from
// staticDir, preferring a pre-encoded sibling in the best format the client
// accepts; remote images are only fetched from hosts on the asset allow-list.
func Image(p *policy.Policy, staticDir string, fetch Fetcher) fiber.Handler {
	if fetch == nil {
		fetch = ProxyFetcher
	}
	return func(c *fiber.Ctx) error {
		raw := c.Query("url")
		src, err := parseImageSource(raw)
		if err == nil && src.remote != nil && !p.IsAllowed(src.remote.Hostname()) {
			err = errHostNotAllow
		}
		if err != nil {
			metrics.ObserveImage("rejected")
			applog.FromCtx(c).Warn().
				Str("url", sanitizeLogInput(raw)).
				Err(err).
				Msg("image request rejected")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if src.remote != nil {
			err := fetch(c, src.remote.String())
			if err == nil {
				if status := c.Response().StatusCode(); status < 200 || status > 299 {
					err = fmt.Errorf("upstream answered %d", status)
				}
			}
			if err != nil {
				metrics.ObserveImage("upstream_error")
				applog.FromCtx(c).Error().Err(err).Str("url", src.remote.String()).Msg("image fetch failed")
				// An upstream redirect must not send clients off the allow-list.
				c.Response().Header.Del(fiber.HeaderLocation)
				c.Response().ResetBody()
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to fetch image"})
			}
			metrics.ObserveImage("proxied")
			c.Set(fiber.HeaderVary, fiber.HeaderAccept)
			return nil
		}

		file := filepath.Join(staticDir, filepath.FromSlash(src.local))
		if !isFile(file) {
			metrics.ObserveImage("not_found")
			return fiber.ErrNotFound
		}

		outcome := "local"
		accepted := policy.ParseAccept(c.Get(fiber.HeaderAccept))
		if format, ok := p.NegotiateFormat(availableFormats(p, file, accepted)); ok {
			file = variantPath(file, format)
			outcome = "variant"
		}
		metrics.ObserveImage(outcome)

		c.Set(fiber.HeaderVary, fiber.HeaderAccept)
		c.Set(fiber.HeaderCacheControl, imageCacheControl)
		return c.SendFile(file)
	}
}

// availableFormats narrows accepted to the formats with a pre-encoded
// sibling of file on disk.
func availableFormats(p *policy.Policy, file string, accepted []string) []string {
	if len(accepted) == 0 {
		return nil
	}
	acceptedSet := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		acceptedSet[a] = true
	}
	var out []string
	for _, f := range p.Assets().Formats {
		if acceptedSet[f] && isFile(variantPath(file, f)) {
			out = append(out, f)
		}
	}
	return out
}

// variantPath maps ("hero.png", "image/webp") to "hero.webp".
func variantPath(file, format string) string {
	ext := "." + strings.TrimPrefix(format, "image/")
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
