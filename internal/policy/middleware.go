package policy

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalRedirect is the fiber.Ctx locals key holding the source pattern of the
// redirect served for the request, if any.
const LocalRedirect = "policy_redirect"

// SetHeaders writes the policy headers for the request path onto the
// response, replacing any value already present under the same name.
func SetHeaders(c *fiber.Ctx, p *Policy) {
	for _, h := range p.ApplyHeaders(c.Path()) {
		c.Set(h.Name, h.Value)
	}
}

// HeadersMiddleware applies the header policy to every response passing
// through it. Headers are written before the chain runs so that redirects and
// errors carry them, and again afterwards because proxied responses replace
// the header set wholesale.
func HeadersMiddleware(p *Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		SetHeaders(c, p)
		err := c.Next()
		SetHeaders(c, p)
		return err
	}
}

// RedirectMiddleware answers requests whose path matches a redirect rule and
// passes everything else down the chain. The incoming query string is carried
// over to the destination.
func RedirectMiddleware(p *Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rd, ok := p.Resolve(NormalizePath(c.Path()))
		if !ok {
			return c.Next()
		}
		c.Locals(LocalRedirect, rd.Source)
		location := WithQuery(rd.Destination, string(c.Request().URI().QueryString()))
		return c.Redirect(location, rd.StatusCode())
	}
}

// NormalizePath gives path a leading slash and drops a trailing one, except
// for the root path.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// WithQuery appends query to dest, joining with "&" when dest already has a
// query of its own. Fragments stay at the end.
func WithQuery(dest, query string) string {
	if query == "" {
		return dest
	}
	fragment := ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		dest, fragment = dest[:i], dest[i:]
	}
	sep := "?"
	if strings.Contains(dest, "?") {
		sep = "&"
	}
	return dest + sep + query + fragment
}
