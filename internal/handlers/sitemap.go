package handlers

import (
	"encoding/xml"
	"fmt"

	"conseilweb/views/pages"

	"github.com/gofiber/fiber/v2"
)

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap lists every content page as an absolute URL under siteURL.
func Sitemap(siteURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
		for _, p := range pages.All {
			set.URLs = append(set.URLs, sitemapURL{Loc: siteURL + p.Path})
		}
		body, err := xml.MarshalIndent(set, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode sitemap: %w", err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
		return c.Send(append([]byte(xml.Header), body...))
	}
}

// Robots allows all crawlers and points them at the sitemap.
func Robots(siteURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", siteURL))
	}
}
