// Package policy holds the request policy table of the site: permanent
// redirects, security response headers and the image asset allow-list.
//
// A Policy is built once at startup and never mutated afterwards, so a single
// *Policy may be shared by every request goroutine without locking.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrDuplicateSource  = errors.New("duplicate redirect source")
	ErrDuplicateHeader  = errors.New("duplicate header name")
	ErrInvalidPattern   = errors.New("invalid source pattern")
	ErrEmptyDestination = errors.New("redirect destination is empty")
	ErrEmptyHeader      = errors.New("header name is empty")
	ErrInvalidFormat    = errors.New("invalid image format")
)

type Header struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

type HeaderRule struct {
	Source   string   `yaml:"source" json:"source"`
	Headers  []Header `yaml:"headers" json:"headers"`
	Priority int      `yaml:"priority,omitempty" json:"priority,omitempty"` // lower runs first; ties keep file order
}

type RedirectRule struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
	Permanent   bool   `yaml:"permanent" json:"permanent"`
	Priority    int    `yaml:"priority,omitempty" json:"priority,omitempty"`
}

type AssetPolicy struct {
	AllowedHosts []string `yaml:"domains" json:"domains"`
	Formats      []string `yaml:"formats" json:"formats"` // preference order
}

// Config is the declarative form of a policy, as found in a policy file.
type Config struct {
	Headers   []HeaderRule   `yaml:"headers" json:"headers"`
	Redirects []RedirectRule `yaml:"redirects" json:"redirects"`
	Images    AssetPolicy    `yaml:"images" json:"images"`
}

// Redirect is the outcome of a successful Resolve.
type Redirect struct {
	Source      string
	Destination string
	Permanent   bool
}

// StatusCode returns 308 for permanent redirects and 307 otherwise. Both keep
// the request method, matching the framework the tables were written for.
func (r Redirect) StatusCode() int {
	if r.Permanent {
		return fiber.StatusPermanentRedirect
	}
	return fiber.StatusTemporaryRedirect
}

type compiledRedirect struct {
	rule    RedirectRule
	pattern *Pattern
}

type compiledHeaders struct {
	rule    HeaderRule
	pattern *Pattern
}

type Policy struct {
	redirects []compiledRedirect
	headers   []compiledHeaders
	hosts     map[string]struct{}
	assets    AssetPolicy
}

// New validates cfg and compiles it into an immutable Policy. Every problem
// found is reported in the returned error.
func New(cfg Config) (*Policy, error) {
	var errs []error
	p := &Policy{hosts: make(map[string]struct{}, len(cfg.Images.AllowedHosts))}

	seen := make(map[string]int, len(cfg.Redirects))
	for i, r := range cfg.Redirects {
		if first, dup := seen[r.Source]; dup {
			errs = append(errs, fmt.Errorf("redirect %d: %w: %q (first declared at %d)", i, ErrDuplicateSource, r.Source, first))
			continue
		}
		seen[r.Source] = i
		if strings.TrimSpace(r.Destination) == "" {
			errs = append(errs, fmt.Errorf("redirect %d (%s): %w", i, r.Source, ErrEmptyDestination))
			continue
		}
		pat, err := CompilePattern(r.Source)
		if err != nil {
			errs = append(errs, fmt.Errorf("redirect %d: %w", i, err))
			continue
		}
		p.redirects = append(p.redirects, compiledRedirect{rule: r, pattern: pat})
	}

	for i, h := range cfg.Headers {
		pat, err := CompilePattern(h.Source)
		if err != nil {
			errs = append(errs, fmt.Errorf("header rule %d: %w", i, err))
			continue
		}
		names := make(map[string]struct{}, len(h.Headers))
		ok := true
		for _, hdr := range h.Headers {
			if strings.TrimSpace(hdr.Name) == "" {
				errs = append(errs, fmt.Errorf("header rule %d (%s): %w", i, h.Source, ErrEmptyHeader))
				ok = false
				continue
			}
			key := strings.ToLower(hdr.Name)
			if _, dup := names[key]; dup {
				errs = append(errs, fmt.Errorf("header rule %d (%s): %w: %q", i, h.Source, ErrDuplicateHeader, hdr.Name))
				ok = false
			}
			names[key] = struct{}{}
		}
		if !ok {
			continue
		}
		rule := h
		rule.Headers = append([]Header(nil), h.Headers...)
		p.headers = append(p.headers, compiledHeaders{rule: rule, pattern: pat})
	}

	for _, host := range cfg.Images.AllowedHosts {
		p.hosts[host] = struct{}{}
		p.assets.AllowedHosts = append(p.assets.AllowedHosts, host)
	}
	for _, f := range cfg.Images.Formats {
		if !validFormat(f) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFormat, f))
			continue
		}
		p.assets.Formats = append(p.assets.Formats, f)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(p.redirects, func(i, j int) bool {
		return p.redirects[i].rule.Priority < p.redirects[j].rule.Priority
	})
	sort.SliceStable(p.headers, func(i, j int) bool {
		return p.headers[i].rule.Priority < p.headers[j].rule.Priority
	})
	return p, nil
}

func validFormat(f string) bool {
	sub, ok := strings.CutPrefix(f, "image/")
	return ok && sub != "" && !strings.ContainsAny(sub, "/ ;,")
}

// Resolve returns the first redirect, in evaluation order, whose source
// matches path. path is expected to be normalized: leading slash, no query.
func (p *Policy) Resolve(path string) (Redirect, bool) {
	for _, r := range p.redirects {
		values, ok := r.pattern.Match(path)
		if !ok {
			continue
		}
		return Redirect{
			Source:      r.rule.Source,
			Destination: substitute(r.rule.Destination, values),
			Permanent:   r.rule.Permanent,
		}, true
	}
	return Redirect{}, false
}

// ApplyHeaders returns the response headers for path. When several rules
// match, a later rule overrides the value of a name set by an earlier one
// while the name keeps its original position.
func (p *Policy) ApplyHeaders(path string) []Header {
	var out []Header
	var index map[string]int
	for _, h := range p.headers {
		if _, ok := h.pattern.Match(path); !ok {
			continue
		}
		if index == nil {
			index = make(map[string]int, len(h.rule.Headers))
		}
		for _, hdr := range h.rule.Headers {
			key := strings.ToLower(hdr.Name)
			if i, ok := index[key]; ok {
				out[i] = hdr
				continue
			}
			index[key] = len(out)
			out = append(out, hdr)
		}
	}
	return out
}

// IsAllowed reports whether host is, byte for byte, one of the allowed image
// hosts.
func (p *Policy) IsAllowed(host string) bool {
	_, ok := p.hosts[host]
	return ok
}

// NegotiateFormat returns the most preferred configured format that appears
// in accepted. ok is false when none does and the original encoding should
// be served.
func (p *Policy) NegotiateFormat(accepted []string) (format string, ok bool) {
	if len(accepted) == 0 {
		return "", false
	}
	set := make(map[string]struct{}, len(accepted))
	for _, a := range accepted {
		set[a] = struct{}{}
	}
	for _, f := range p.assets.Formats {
		if _, ok := set[f]; ok {
			return f, true
		}
	}
	return "", false
}

// RedirectRules returns a copy of the redirect table in evaluation order.
func (p *Policy) RedirectRules() []RedirectRule {
	out := make([]RedirectRule, len(p.redirects))
	for i, r := range p.redirects {
		out[i] = r.rule
	}
	return out
}

// HeaderRules returns a copy of the header table in evaluation order.
func (p *Policy) HeaderRules() []HeaderRule {
	out := make([]HeaderRule, len(p.headers))
	for i, h := range p.headers {
		rule := h.rule
		rule.Headers = append([]Header(nil), h.rule.Headers...)
		out[i] = rule
	}
	return out
}

// Assets returns a copy of the image asset policy.
func (p *Policy) Assets() AssetPolicy {
	return AssetPolicy{
		AllowedHosts: append([]string(nil), p.assets.AllowedHosts...),
		Formats:      append([]string(nil), p.assets.Formats...),
	}
}
