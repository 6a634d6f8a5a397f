package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"conseilweb/internal/policy"
	"conseilweb/views/pages"

	"github.com/mark3labs/mcp-go/mcp"
)

type handlers struct {
	pol *policy.Policy
}

func (h *handlers) resolveRedirect(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := requireString(req.GetArguments(), "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path = policy.NormalizePath(path)
	rd, ok := h.pol.Resolve(path)
	return jsonResult(RedirectToDTO(path, rd, ok))
}

func (h *handlers) responseHeaders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := req.GetArguments()["path"].(string)
	path = policy.NormalizePath(path)

	headers := h.pol.ApplyHeaders(path)
	if headers == nil {
		headers = []policy.Header{}
	}
	return jsonResult(HeadersDTO{Path: path, Headers: headers})
}

func (h *handlers) checkImageHost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host, err := requireString(req.GetArguments(), "host")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(HostDTO{Host: host, Allowed: h.pol.IsAllowed(host)})
}

func (h *handlers) negotiateImageFormat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accept, err := requireString(req.GetArguments(), "accept")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accepted := policy.ParseAccept(accept)
	format, ok := h.pol.NegotiateFormat(accepted)
	if accepted == nil {
		accepted = []string{}
	}
	return jsonResult(FormatDTO{
		Accept:   accept,
		Accepted: accepted,
		Format:   format,
		Original: !ok,
	})
}

func (h *handlers) listPages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := make([]PageDTO, 0, len(pages.All))
	for _, p := range pages.All {
		out = append(out, PageToDTO(p))
	}
	return jsonResult(out)
}

// helpers

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return s, nil
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
