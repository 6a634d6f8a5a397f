package mcptools

import (
	"conseilweb/internal/policy"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools exposes the read-only policy queries as MCP tools.
func RegisterTools(s *server.MCPServer, pol *policy.Policy) {
	h := &handlers{pol: pol}

	s.AddTool(
		mcp.NewTool("resolve_redirect",
			mcp.WithDescription("Resolve a request path against the redirect table. Returns the destination and status code of the first matching rule, or matched=false."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("path", mcp.Description("Request path, e.g. /android"), mcp.Required()),
		),
		h.resolveRedirect,
	)

	s.AddTool(
		mcp.NewTool("response_headers",
			mcp.WithDescription("List the policy response headers, in order, that apply to a request path."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("path", mcp.Description("Request path (default /)")),
		),
		h.responseHeaders,
	)

	s.AddTool(
		mcp.NewTool("check_image_host",
			mcp.WithDescription("Check whether remote images may be loaded from a host. Matching is exact."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("host", mcp.Description("Host name, e.g. cdn.conseil-orientation.com"), mcp.Required()),
		),
		h.checkImageHost,
	)

	s.AddTool(
		mcp.NewTool("negotiate_image_format",
			mcp.WithDescription("Pick the optimized image format served for an Accept header value, or report that the original encoding is served."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("accept", mcp.Description("Accept header value, e.g. image/avif,image/webp,*/*"), mcp.Required()),
		),
		h.negotiateImageFormat,
	)

	s.AddTool(
		mcp.NewTool("list_pages",
			mcp.WithDescription("List the site's content routes with their section order."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		h.listPages,
	)
}
