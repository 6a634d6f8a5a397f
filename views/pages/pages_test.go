package pages

import (
	"bytes"
	"context"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

var sectionAttr = regexp.MustCompile(`data-section="([A-Za-z]+)"`)

func render(t *testing.T, p Page, site Site) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(p, site).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render(%s): %v", p.Path, err)
	}
	return buf.String()
}

func renderedSections(html string) []string {
	var out []string
	for _, m := range sectionAttr.FindAllStringSubmatch(html, -1) {
		out = append(out, m[1])
	}
	return out
}

func TestPages_SectionOrder(t *testing.T) {
	cases := map[string][]string{
		"/about":    {"Hero", "Mission", "Story", "Values", "Stats", "Team"},
		"/docs":     {"Hero", "Nav", "QuickStart", "API"},
		"/download": {"Hero", "Download", "SystemRequirements", "InstallationGuide"},
		"/features": {"Hero", "Features", "ComparisonTable", "Integration"},
		"/support":  {"Hero", "FAQ", "Troubleshooting", "SupportChannels", "ContactForm"},
	}
	for path, want := range cases {
		p, ok := Lookup(path)
		if !ok {
			t.Fatalf("Lookup(%q) found nothing", path)
		}
		if got := p.SectionOrder(); !reflect.DeepEqual(got, want) {
			t.Errorf("%s SectionOrder() = %v, want %v", path, got, want)
		}
		if got := renderedSections(render(t, p, Site{URL: "http://localhost:3000"})); !reflect.DeepEqual(got, want) {
			t.Errorf("%s rendered sections = %v, want %v", path, got, want)
		}
	}
}

func TestDocs_TwoRegionLayout(t *testing.T) {
	p, _ := Lookup("/docs")
	html := render(t, p, Site{URL: "http://localhost:3000"})

	aside := strings.Index(html, "<aside>")
	content := strings.Index(html, `<div class="content">`)
	nav := strings.Index(html, `data-section="Nav"`)
	quick := strings.Index(html, `data-section="QuickStart"`)
	if aside < 0 || content < 0 {
		t.Fatalf("docs page is missing its regions:\n%s", html)
	}
	if !(aside < nav && nav < content && content < quick) {
		t.Errorf("Nav should sit in the aside and QuickStart in the content column")
	}
	if !strings.Contains(html, `href="#quick-start"`) || !strings.Contains(html, `href="#api"`) {
		t.Errorf("docs nav should link to its main sections")
	}
}

func TestDownload_LinksToRedirects(t *testing.T) {
	p, _ := Lookup("/download")
	html := render(t, p, Site{URL: "http://localhost:3000"})
	for _, href := range []string{`href="/android"`, `href="/ios"`, `href="/apk"`} {
		if !strings.Contains(html, href) {
			t.Errorf("download page missing %s", href)
		}
	}
}

func TestLayout_CanonicalAndAnalytics(t *testing.T) {
	p, _ := Lookup("/features")

	plain := render(t, p, Site{URL: "https://conseil-orientation.com"})
	if !strings.Contains(plain, `<link rel="canonical" href="https://conseil-orientation.com/features">`) {
		t.Errorf("missing canonical link")
	}
	if strings.Contains(plain, "googletagmanager") {
		t.Errorf("analytics must be omitted when no ids are configured")
	}

	tagged := render(t, p, Site{URL: "https://conseil-orientation.com", GAID: "G-TEST1", GTMID: "GTM-TEST2"})
	for _, want := range []string{
		`gtag/js?id=G-TEST1`,
		`id="ga-id"`,
		`"G-TEST1"`,
		`id="gtm-id"`,
		`"GTM-TEST2"`,
		`ns.html?id=GTM-TEST2`,
	} {
		if !strings.Contains(tagged, want) {
			t.Errorf("tagged page missing %q", want)
		}
	}
}

func TestLayout_EscapesAnalyticsIDs(t *testing.T) {
	p, _ := Lookup("/")
	html := render(t, p, Site{URL: "http://localhost:3000", GAID: `</script><script>alert(1)</script>`})
	if strings.Contains(html, "<script>alert(1)") {
		t.Errorf("GA id was not escaped:\n%s", html)
	}
}

func TestSection_EscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	p := Page{Title: `<img src=x onerror=alert(1)>`, Sections: []string{"Hero"}}
	if err := Section(p, "Hero").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "<img") {
		t.Errorf("title was not escaped: %s", buf.String())
	}
}

func TestNotFound_RendersSection(t *testing.T) {
	var buf bytes.Buffer
	if err := NotFound(Site{URL: "http://localhost:3000"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := renderedSections(buf.String()); !reflect.DeepEqual(got, []string{"NotFound"}) {
		t.Errorf("404 sections = %v", got)
	}
}

func TestSectionLabelAndID(t *testing.T) {
	cases := []struct{ name, label, id string }{
		{"Hero", "Hero", "hero"},
		{"QuickStart", "Quick Start", "quick-start"},
		{"API", "API", "api"},
		{"FAQ", "FAQ", "faq"},
		{"SystemRequirements", "System Requirements", "system-requirements"},
	}
	for _, tc := range cases {
		if got := SectionLabel(tc.name); got != tc.label {
			t.Errorf("SectionLabel(%q) = %q, want %q", tc.name, got, tc.label)
		}
		if got := SectionID(tc.name); got != tc.id {
			t.Errorf("SectionID(%q) = %q, want %q", tc.name, got, tc.id)
		}
	}
}
