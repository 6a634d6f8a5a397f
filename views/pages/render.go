package pages

import (
	"strings"
	"unicode"

	"github.com/a-h/templ"
)

// Site carries the deployment values the layout needs.
type Site struct {
	URL   string // absolute base URL, no trailing slash
	GAID  string
	GTMID string
}

var notFoundPage = Page{
	Path:        "/404",
	Title:       "Page not found",
	Description: "Page not found",
	Sections:    []string{"NotFound"},
}

// Render returns the full document for p.
func Render(p Page, site Site) templ.Component {
	title := p.Title
	if p.Path != "/" {
		title += " | Conseil Orientation"
	}
	return Document(title, p, site)
}

// NotFound renders the 404 document.
func NotFound(site Site) templ.Component {
	return Document(notFoundPage.Title, notFoundPage, site)
}

// SectionLabel turns "SystemRequirements" into "System Requirements".
// Acronyms such as "FAQ" and "API" are kept whole.
func SectionLabel(name string) string {
	return strings.Join(splitWords(name), " ")
}

// SectionID turns "QuickStart" into "quick-start".
func SectionID(name string) string {
	return strings.ToLower(strings.Join(splitWords(name), "-"))
}

func splitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
