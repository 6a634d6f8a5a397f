// Package caddy renders the request policy as a Caddyfile, for deployments
// where Caddy answers redirects and sets headers in front of the app.
package caddy

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"conseilweb/internal/policy"
)

// sanitizeDomain strips characters that could break or inject blocks into a
// Caddyfile: newlines, backticks, and curly braces.
func sanitizeDomain(domain string) string {
	replacer := strings.NewReplacer(
		"\n", "",
		"\r", "",
		"`", "",
		"{", "",
		"}", "",
	)
	return strings.TrimSpace(replacer.Replace(domain))
}

// validateValue rejects policy values that would break out of the directive
// they are written into. Braces are refused because Caddy reads them as
// placeholders.
func validateValue(v string) error {
	if strings.ContainsAny(v, "\n\r") {
		return fmt.Errorf("value must not contain newlines: %q", v)
	}
	if strings.ContainsAny(v, "`{}") {
		return fmt.Errorf("value must not contain backticks or braces: %q", v)
	}
	return nil
}

// quote returns v as a single Caddyfile token.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\"'") {
		return v
	}
	return "`" + v + "`"
}

type Options struct {
	Domain    string // site address, e.g. conseil-orientation.com
	Upstream  string // reverse_proxy target, e.g. localhost:3000
	AcmeEmail string
}

// Render builds a Caddyfile equivalent to p. Rules are emitted inside a route
// block so Caddy evaluates them in policy order: header rules first, then the
// redirects (first match wins), then the proxy to the app.
func Render(p *policy.Policy, opts Options) (string, error) {
	domain := sanitizeDomain(opts.Domain)
	if domain == "" {
		return "", fmt.Errorf("domain is required")
	}
	upstream := sanitizeDomain(opts.Upstream)
	if upstream == "" || strings.ContainsAny(upstream, " \t") {
		return "", fmt.Errorf("invalid upstream %q", opts.Upstream)
	}

	var b strings.Builder
	if email := sanitizeDomain(opts.AcmeEmail); email != "" {
		b.WriteString("{\n")
		b.WriteString(fmt.Sprintf("\temail %s\n", email))
		b.WriteString("}\n\n")
	}

	b.WriteString(fmt.Sprintf("%s {\n", domain))
	b.WriteString("\troute {\n")

	for i, rule := range p.HeaderRules() {
		if err := writeHeaderRule(&b, rule, i); err != nil {
			return "", err
		}
	}
	for i, rule := range p.RedirectRules() {
		if err := writeRedirect(&b, rule, i); err != nil {
			return "", err
		}
	}

	b.WriteString(fmt.Sprintf("\t\treverse_proxy %s\n", upstream))
	b.WriteString("\t}\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func writeHeaderRule(b *strings.Builder, rule policy.HeaderRule, index int) error {
	pat, err := policy.CompilePattern(rule.Source)
	if err != nil {
		return err
	}
	for _, h := range rule.Headers {
		if err := validateValue(h.Name + h.Value); err != nil {
			return fmt.Errorf("header rule %q: %w", rule.Source, err)
		}
	}

	matcher := ""
	if !pat.MatchesAll() {
		name := fmt.Sprintf("headers_%d", index)
		b.WriteString(fmt.Sprintf("\t\t@%s path_regexp %s %s\n", name, name, quote(pat.Expr())))
		matcher = "@" + name + " "
	}

	// defer applies the headers after the upstream has written its own, so
	// the policy value wins for a shared name.
	b.WriteString(fmt.Sprintf("\t\theader %s{\n", matcher))
	b.WriteString("\t\t\tdefer\n")
	for _, h := range rule.Headers {
		b.WriteString(fmt.Sprintf("\t\t\t%s %s\n", h.Name, quote(h.Value)))
	}
	b.WriteString("\t\t}\n")
	return nil
}

func writeRedirect(b *strings.Builder, rule policy.RedirectRule, index int) error {
	if err := validateValue(rule.Destination); err != nil {
		return fmt.Errorf("redirect %q: %w", rule.Source, err)
	}
	pat, err := policy.CompilePattern(rule.Source)
	if err != nil {
		return err
	}
	status := policy.Redirect{Permanent: rule.Permanent}.StatusCode()

	// Caddy reads "*" in a path matcher as a wildcard, so such literals go
	// through path_regexp to keep exact matching.
	if path, ok := pat.Literal(); ok && !strings.Contains(path, "*") {
		if err := validateValue(path); err != nil {
			return fmt.Errorf("redirect %q: %w", rule.Source, err)
		}
		b.WriteString(fmt.Sprintf("\t\tredir %s %s %d\n", quote(path), quote(rule.Destination), status))
		return nil
	}

	name := fmt.Sprintf("redirect_%d", index)
	dest := pat.ExpandDestination(rule.Destination, func(param string) string {
		return fmt.Sprintf("{re.%s.%s}", name, param)
	})
	b.WriteString(fmt.Sprintf("\t\t@%s path_regexp %s %s\n", name, name, quote(pat.Expr())))
	b.WriteString(fmt.Sprintf("\t\tredir @%s %s %d\n", name, quote(dest), status))
	return nil
}

type Manager struct {
	CaddyfilePath string
	Validate      bool // run `caddy validate` before moving the file into place
	mu            sync.Mutex
}

func NewManager(caddyfilePath string, validate bool) *Manager {
	if caddyfilePath == "" {
		caddyfilePath = "Caddyfile"
	}
	return &Manager{CaddyfilePath: caddyfilePath, Validate: validate}
}

// Write replaces the Caddyfile with content through a temporary file, so a
// reader never sees a partial file and a rejected config never lands.
func (m *Manager) Write(content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tmpPath := m.CaddyfilePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write Caddyfile: %w", err)
	}

	if m.Validate {
		out, err := exec.Command("caddy", "validate", "--adapter", "caddyfile", "--config", tmpPath).CombinedOutput()
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("Caddyfile validation failed: %w\n%s", err, string(out))
		}
	}

	if err := os.Rename(tmpPath, m.CaddyfilePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move Caddyfile into place: %w", err)
	}
	return nil
}
