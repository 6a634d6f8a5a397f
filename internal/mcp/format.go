package mcptools

import (
	"conseilweb/internal/policy"
	"conseilweb/views/pages"
)

type RedirectDTO struct {
	Path        string `json:"path"`
	Matched     bool   `json:"matched"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Permanent   bool   `json:"permanent,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
}

type HeadersDTO struct {
	Path    string          `json:"path"`
	Headers []policy.Header `json:"headers"`
}

type HostDTO struct {
	Host    string `json:"host"`
	Allowed bool   `json:"allowed"`
}

type FormatDTO struct {
	Accept   string   `json:"accept"`
	Accepted []string `json:"accepted"`
	Format   string   `json:"format,omitempty"`
	Original bool     `json:"serve_original"`
}

type PageDTO struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
	Aside    []string `json:"aside,omitempty"`
	Main     []string `json:"main,omitempty"`
}

func RedirectToDTO(path string, rd policy.Redirect, ok bool) RedirectDTO {
	dto := RedirectDTO{Path: path, Matched: ok}
	if ok {
		dto.Source = rd.Source
		dto.Destination = rd.Destination
		dto.Permanent = rd.Permanent
		dto.StatusCode = rd.StatusCode()
	}
	return dto
}

func PageToDTO(p pages.Page) PageDTO {
	return PageDTO{
		Path:     p.Path,
		Title:    p.Title,
		Sections: p.Sections,
		Aside:    p.Aside,
		Main:     p.Main,
	}
}
